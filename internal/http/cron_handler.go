package httpapi

import (
	"net/http"

	"kimoncrm/internal/service"

	"go.uber.org/zap"
)

// CronHandler endpoints the external scheduler hits on a timer.
type CronHandler struct {
	mailbox service.MailboxService
	logger  *zap.Logger
}

func NewCronHandler(mailbox service.MailboxService, logger *zap.Logger) *CronHandler {
	return &CronHandler{mailbox: mailbox, logger: logger}
}

func (h *CronHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/crm/api/v1/cron/scan-mailboxes" && r.Method == http.MethodPost:
		h.ScanMailboxes(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CronHandler) ScanMailboxes(w http.ResponseWriter, r *http.Request) {
	result, err := h.mailbox.ScanMailboxes(r.Context())
	if err != nil {
		h.logger.Error("mailbox scan failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
