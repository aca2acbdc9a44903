package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	vlog "vendas/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name string, reason string) {
		checks[name] = "failed: " + reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.dashboard == nil:
		fail("backend", "not configured")
	case s.ready != nil:
		if err := s.ready(ctx); err != nil {
			fail("backend", err.Error())
		} else {
			checks["backend"] = "ok"
		}
	default:
		checks["backend"] = "ok"
	}

	if s.snapshot != nil {
		at, records, err := s.snapshot(ctx)
		switch {
		case err != nil:
			fail("snapshot", err.Error())
		case at.IsZero():
			checks["snapshot"] = map[string]any{"status": "empty"}
		default:
			checks["snapshot"] = map[string]any{
				"status":       "ok",
				"refreshed_at": at.Format(time.RFC3339),
				"records":      records,
			}
		}
	}
	if s.dashboard != nil {
		checks["cache"] = map[string]any{"entries": s.dashboard.CachedQueries()}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"backend":   s.backend,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleRefresh requests a fresh copy of the dataset. With AMQP the request
// is queued, otherwise it runs inline; backends without a snapshot only drop
// the cached collections.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := vlog.FromContext(ctx)
	reason := sanitizeInput(r.URL.Query().Get("motivo"))
	if reason == "" {
		reason = "admin"
	}

	switch {
	case s.publisher != nil:
		if err := s.publisher.PublishRefresh(ctx, reason); err != nil {
			logger.ErrorContext(ctx, "Failed to queue refresh", vlog.FieldError, err, vlog.FieldReason, reason)
			NewHTMXResponse().
				Status(http.StatusServiceUnavailable).
				TriggerErrorNotification("Não foi possível agendar a atualização").
				Write(w)
			return
		}
		logger.InfoContext(ctx, "Refresh queued", vlog.FieldReason, reason)
		NewHTMXResponse().
			Status(http.StatusAccepted).
			TriggerSuccessNotification("Atualização agendada").
			BodyHTML(`<div class="success">Atualização agendada</div>`).
			Write(w)

	case s.refresher != nil:
		n, err := s.refresher.Refresh(ctx, reason)
		if err != nil {
			logger.ErrorContext(ctx, "Inline refresh failed", vlog.FieldError, err, vlog.FieldReason, reason)
			NewHTMXResponse().
				Status(http.StatusBadGateway).
				TriggerErrorNotification("Falha ao atualizar os dados").
				Write(w)
			return
		}
		NewHTMXResponse().
			TriggerDashboardRefresh().
			TriggerSuccessNotification("Dados atualizados").
			BodyHTML(`<div class="success">` + strconv.Itoa(n) + ` registros carregados</div>`).
			Write(w)

	default:
		s.dashboard.Invalidate()
		logger.InfoContext(ctx, "Record cache cleared", vlog.FieldReason, reason)
		NewHTMXResponse().
			TriggerDashboardRefresh().
			TriggerSuccessNotification("Cache limpo").
			BodyHTML(`<div class="success">Cache limpo</div>`).
			Write(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
