package main

import (
	"tango-agenda/core/logger"
	"tango-agenda/core/server"
)

// @title Tango Agenda API
// @version 1.0
// @description Community calendar of dance events with moderation and email digests

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
