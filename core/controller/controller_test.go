package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tango-agenda/core/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorResponseFor(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, NewBaseController().ErrorResponse(c, err))
	return rec
}

func TestErrorResponseStatusMapping(t *testing.T) {
	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrInvalidInput, http.StatusBadRequest},
		{errors.ErrUnauthorized, http.StatusUnauthorized},
		{errors.ErrForbidden, http.StatusForbidden},
		{errors.ErrNotFound, http.StatusNotFound},
		{errors.ErrAlreadyExists, http.StatusConflict},
		{errors.ErrGetFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := errorResponseFor(t, errors.NewAppError(tc.code, "boom", nil))
		assert.Equal(t, tc.want, rec.Code, string(tc.code))
	}
}

func TestErrorResponseCarriesFieldDetails(t *testing.T) {
	rec := errorResponseFor(t, errors.NewAppError(errors.ErrInvalidInput,
		"end_date: must be on or after start_date", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"end_date"`)
	assert.Contains(t, rec.Body.String(), `"message":"must be on or after start_date"`)
}

func TestErrorResponseWithoutFieldPrefixStaysUnstructured(t *testing.T) {
	rec := errorResponseFor(t, errors.NewAppError(errors.ErrInvalidInput,
		"Content database is not configured", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"details"`)
}

func TestErrorResponsePlainError(t *testing.T) {
	rec := errorResponseFor(t, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFieldErrors(t *testing.T) {
	assert.Equal(t, []ValidationError{{Field: "title", Message: "required"}}, fieldErrors("title: required"))
	assert.Equal(t, []ValidationError{{Field: "mode", Message: "must be all, occurrence or following"}},
		fieldErrors("mode: must be all, occurrence or following"))
	assert.Nil(t, fieldErrors("Invalid request body"))
	assert.Nil(t, fieldErrors("Event not found"))
}
