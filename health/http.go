package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON health document served by Handler.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of a single health check result.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func checkResponse(result Result) CheckResponse {
	cr := CheckResponse{
		Status:   result.Status.String(),
		Message:  result.Message,
		Duration: result.Duration.String(),
		Details:  result.Details,
	}
	if result.Error != nil {
		cr.Error = result.Error.Error()
	}
	return cr
}

// statusCode maps an aggregate status to an HTTP code. Degraded still
// answers 200: the client is impaired but serving.
func statusCode(status Status) int {
	if status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handler returns an HTTP handler serving the full JSON health
// document. The run is bounded by the registry's configured timeout.
func Handler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := reg.CheckAll(r.Context())
		status := reg.OverallStatus(results)

		doc := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, result := range results {
			doc.Checks[name] = checkResponse(result)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(status))
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// ReadinessHandler returns a terse readiness endpoint for embedding
// apps. It runs all registered checks and answers with a one-word body.
func ReadinessHandler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := reg.CheckAll(r.Context())
		status := reg.OverallStatus(results)

		body := "OK"
		switch status {
		case StatusDegraded:
			body = "DEGRADED"
		case StatusUnhealthy:
			body = "UNHEALTHY"
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(statusCode(status))
		_, _ = w.Write([]byte(body))
	}
}

// RegisterHandlers mounts the health endpoints on the given mux.
func RegisterHandlers(mux *http.ServeMux, reg *Registry) {
	mux.HandleFunc("/readyz", ReadinessHandler(reg))
	mux.HandleFunc("/health", Handler(reg))
}
