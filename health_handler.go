package main

import (
	"context"
	"net/http"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	service string
	checks  map[string]repository.Pinger
}

func NewHealthHandler(service string, checks map[string]repository.Pinger) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
	}
}

// HealthCheck pings every dependency and answers 503 if any is down.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	response := model.HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(h.checks)),
	}
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			_ = c.Error(err)
			response.Checks[name] = "unhealthy"
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "healthy"
	}

	c.JSON(status, response)
}
