package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/donation_payments_app/internal/core/ports/services"
	"github.com/SscSPs/donation_payments_app/internal/dto"
	"github.com/SscSPs/donation_payments_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	// NotifyTokenHeader carries the shared token for notifications relayed without md5sig.
	NotifyTokenHeader  = "X-Notify-Token"
	maxNotifyBodyBytes = 64 << 10
)

// NotifyHandler receives server-to-server payment notifications from the gateway.
type NotifyHandler struct {
	reconciler portssvc.CallbackReconcilerSvc
}

func NewNotifyHandler(r portssvc.CallbackReconcilerSvc) *NotifyHandler {
	return &NotifyHandler{reconciler: r}
}

func registerNotifyRoutes(r *gin.Engine, reconciler portssvc.CallbackReconcilerSvc) {
	h := NewNotifyHandler(reconciler)
	r.POST("/payment/notify", h.Notify)
}

// Notify godoc
// @Summary Gateway payment notification
// @Description Accepts form-encoded or JSON notify data. Always answers 200 so the gateway does not redeliver; the outcome is logged and recorded.
// @Tags payments
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /payment/notify [post]
func (h *NotifyHandler) Notify(c *gin.Context) {
	values, err := readNotifyValues(c)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Unreadable notification body", slog.String("error", err.Error()))
		values = map[string]string{}
	}

	n := dto.NotificationFromValues(values)
	h.reconciler.Reconcile(c.Request.Context(), n, values, c.GetHeader(NotifyTokenHeader))

	c.String(http.StatusOK, "OK")
}

// readNotifyValues flattens the notify body into field -> value. The gateway
// posts application/x-www-form-urlencoded; JSON is accepted for relays.
func readNotifyValues(c *gin.Context) (map[string]string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxNotifyBodyBytes)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			switch tv := v.(type) {
			case string:
				values[k] = tv
			case json.Number:
				values[k] = tv.String()
			case nil:
			default:
				values[k] = fmt.Sprint(tv)
			}
		}
		return values, nil
	}

	if err := c.Request.ParseMultipartForm(maxNotifyBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	values := make(map[string]string, len(c.Request.PostForm))
	for k := range c.Request.PostForm {
		values[k] = c.Request.PostForm.Get(k)
	}
	return values, nil
}
