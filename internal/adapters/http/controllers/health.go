package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	healthCheckTimeout = 2 * time.Second

	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

type HealthResponse struct {
	Status   string            `json:"status" example:"ok"`
	Services map[string]string `json:"services" example:"storage:ok,redis:ok,broker:ok"`
}

// HealthChecker probes one dependency. Check receives a context bounded by
// the per check timeout.
type HealthChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthController struct {
	checkers []HealthChecker
	timeout  time.Duration
}

func NewHealthController(checkers []HealthChecker) *HealthController {
	return &HealthController{checkers: checkers, timeout: healthCheckTimeout}
}

// Health godoc
// @Summary     Health check
// @Description Checks the storage, cache and broker the API depends on
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Failure     503 {object} HealthResponse
// @Router      /api/v1/health [get]
func (h *HealthController) Health(c *gin.Context) {
	services := h.probe(c.Request.Context())

	resp := HealthResponse{Status: healthStatusOK, Services: services}
	for _, result := range services {
		if result != healthStatusOK {
			resp.Status = healthStatusDegraded
			break
		}
	}

	code := http.StatusOK
	if resp.Status != healthStatusOK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// probe runs every checker concurrently. A failing checker never cancels the
// others, so each result is the checker's own.
func (h *HealthController) probe(ctx context.Context) map[string]string {
	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checkers))
		group   errgroup.Group
	)

	for _, checker := range h.checkers {
		group.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			result := healthStatusOK
			if err := checker.Check(checkCtx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			results[checker.Name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return results
}
