package http

import (
	"net/http"
	"time"

	"github.com/microscopium/signup/pkg/httpx"
)

// HealthResponse is the body returned by the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each critical dependency.
type HealthChecks struct {
	Database     string `json:"database" example:"ok"`
	RemoteServer string `json:"remote_server" example:"ok"`
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
