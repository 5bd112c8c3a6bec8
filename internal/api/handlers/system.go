// system.go — служебные endpoints SDS: ping, health, status,
// available_validators.
package handlers

import (
	"net/http"

	"github.com/bigkaa/sds/internal/api/errors"
	"github.com/bigkaa/sds/internal/validation"
)

// Ping обрабатывает GET /ping. Публичный.
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"ping": "pong"})
}

// Health обрабатывает GET /health. Публичный.
// 200 при успехе всех проверок статус-репорта, иначе 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.svc.StatusReport(r.Context())
	if !report.IsAllSuccess {
		errors.ServiceUnavailable(w, "Please try again later.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"Health": "OK"})
}

// Status обрабатывает GET /status. Публичный.
// Полный отчёт по проверкам всех компонентов.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.StatusReport(r.Context()))
}

// AvailableValidators обрабатывает GET /available_validators.
// Отсортированный список валидаторов реестра.
func (h *Handler) AvailableValidators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, validation.List())
}
