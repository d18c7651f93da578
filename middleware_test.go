package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/config"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJWTService(t *testing.T) {
	svc := NewJWTService(config.JWT{Secret: "secret", Issuer: "ticketbooking", Expiry: time.Hour})
	user := &model.User{ID: "0b8f9b1e-7a55-4c2e-9a2c-1f3f3f0e8d11", Email: "ana@example.com", Role: model.RoleUser}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWT{Secret: "other", Issuer: "ticketbooking", Expiry: time.Hour})
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWT{Secret: "secret", Issuer: "someone-else", Expiry: time.Hour})
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTService(config.JWT{Secret: "secret", Issuer: "ticketbooking", Expiry: -time.Minute})
		stale, err := expired.GenerateToken(user)
		require.NoError(t, err)
		_, err = svc.ValidateToken(stale)
		assert.Error(t, err)
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(headerRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(headerRequestID))
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(erroringLimiter{}, time.Minute, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{model.ErrEventNotFound, http.StatusNotFound, "not_found"},
		{model.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: %w", model.ErrAlreadyBooked, model.ErrConflict), http.StatusConflict, "already_booked"},
		{model.ErrSoldOut, http.StatusConflict, "sold_out"},
		{model.ErrConflict, http.StatusConflict, "conflict"},
		{model.ErrInvalidCategory, http.StatusBadRequest, "validation_failed"},
		{model.ErrInvalidCredentials, http.StatusUnauthorized, "authentication_failed"},
		{&model.TransactionError{Op: "book_event", Err: errors.New("connection reset")}, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode+"/"+tt.err.Error(), func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
