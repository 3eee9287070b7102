package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"akwaabamarket.com/app/internal/http/middleware"
	"akwaabamarket.com/app/internal/modules/payments"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Provider   payments.Provider
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, p payments.Provider, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Provider: p, WebhookSvc: svc}
}

// POST /webhooks/paystack
// Body is raw JSON; the signature header is validated by the provider
// adapter before anything is parsed. Policy: 400 for bad signature/payload,
// 200 for ignored event types and idempotent no-ops, 500 for apply failures
// so the provider retries.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.RecordWebhookEvent(h.Provider.Name(), "rejected")
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		middleware.RecordWebhookEvent(h.Provider.Name(), "rejected")
		if errors.Is(err, payments.ErrBadSignature) {
			h.Logger.Warn("webhook signature mismatch", "provider", h.Provider.Name())
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	if err := h.WebhookSvc.Handle(c.Request.Context(), h.Provider.Name(), ev, body); err != nil {
		middleware.RecordWebhookEvent(h.Provider.Name(), "failed")
		h.Logger.Error("webhook apply failed", "event_id", ev.EventID, "type", ev.Type, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	if ev.Type == payments.EventChargeSuccess {
		middleware.RecordWebhookEvent(h.Provider.Name(), "applied")
	} else {
		middleware.RecordWebhookEvent(h.Provider.Name(), "ignored")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
