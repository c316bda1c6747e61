package http

import (
	"net/http"
	"time"

	"github.com/microscopium/signup/internal/signup/store"
	"github.com/microscopium/signup/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the nonce store and the remote image data server
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	pinger Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database:     "ok",
			RemoteServer: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check nonce store connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check the remote server is reachable. Signups cannot proceed
		// without it, so an unreachable server means not ready.
		if pinger == nil {
			checks.RemoteServer = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := pinger.Ping(r.Context()); err != nil {
			checks.RemoteServer = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
