package digest

import (
	"context"
	"time"

	"tango-agenda/core/config"
	"tango-agenda/core/logger"
	"tango-agenda/core/mailer"
	"tango-agenda/modules/digest/service"
	eventservice "tango-agenda/modules/event/service"
	subrepo "tango-agenda/modules/subscription/repository"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Dispatcher owns the digest queue worker and the cron tick that feeds it.
type Dispatcher struct {
	svc    *service.DigestService
	cron   *cron.Cron
	client *asynq.Client
	server *asynq.Server
}

// Init builds the digest dispatcher. With an empty DIGEST_SCHEDULE it
// returns nil and digests are only reachable through the /digest/due pull
// endpoint, leaving dispatch to an external cron.
func Init(cfg *config.Config, subs subrepo.SubscriptionRepositoryInterface,
	events eventservice.EventServiceInterface, mail *mailer.Mailer) *Dispatcher {

	if cfg.Digest.Schedule == "" {
		logger.Info("Digest dispatcher disabled, no schedule configured")
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	svc := service.NewDigestService(subs, events, mail, cfg.Server.BaseURL)
	d := &Dispatcher{
		svc:    svc,
		cron:   cron.New(),
		client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{Concurrency: 2}),
	}

	return d
}

// Start launches the queue worker and schedules the due-subscription scan.
func (d *Dispatcher) Start(schedule string) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TypeDigestSend, d.svc.HandleSend)
	if err := d.server.Start(mux); err != nil {
		return err
	}

	_, err := d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := d.svc.EnqueueDue(ctx, d.client, time.Now().UTC())
		if err != nil {
			logger.Error("Digest scan failed", err)
			return
		}
		if n > 0 {
			logger.Info("Digest scan complete", "enqueued", n)
		}
	})
	if err != nil {
		d.server.Shutdown()
		return err
	}

	d.cron.Start()
	logger.Info("Digest dispatcher started", "schedule", schedule)
	return nil
}

// Shutdown stops the cron tick and drains the queue worker.
func (d *Dispatcher) Shutdown() {
	if d == nil {
		return
	}
	d.cron.Stop()
	d.server.Shutdown()
	if err := d.client.Close(); err != nil {
		logger.Error("Digest dispatcher close", err)
	}
}
