// Package handlers wires the verification core to the Fiber HTTP surface.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/services"
	"github.com/hodlgate/hodlgate/backend/store"
)

// WebApp bundles the per-process store and service instances handlers work
// against. One instance per process; tests build their own with fresh stores.
type WebApp struct {
	Sessions  *store.SessionStore
	Queue     *store.RelayQueue
	Verifier  *services.VerificationService
	Dashboard *services.DashboardService
	Version   string
	Commit    string
}

// HealthCheck reports liveness plus store gauges for probes and the dashboard.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":         "ok",
			"version":        webApp.Version,
			"sessions":       webApp.Sessions.Len(),
			"pendingUpdates": webApp.Queue.Len(),
		})
	}
}

// DashboardStatsAPI serves the aggregated summary the polling web UI renders.
func DashboardStatsAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(webApp.Dashboard.Stats())
	}
}
