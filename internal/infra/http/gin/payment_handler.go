package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	paymentsapp "staylane/internal/app/handlers/payments"
)

type PaymentHTTP interface {
	CreateSession(c *gin.Context)
	Confirm(c *gin.Context)
}

// PaymentHandler serves checkout creation and the provider return. PublicURL
// is where the provider sends the buyer back to; empty means the request host.
type PaymentHandler struct {
	Commands   commands.Bus
	PublicURL  string
	SuccessURL string
	FailureURL string
	Logger     *slog.Logger
}

func (h PaymentHandler) CreateSession(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	cmd := paymentsapp.CreatePaymentSessionCommand{
		BookingID:    c.Param("id"),
		ProfileID:    string(user.ID),
		ReturnOrigin: h.returnOrigin(c),
	}
	result, err := commands.Dispatch[paymentsapp.CreatePaymentSessionCommand, dto.PaymentSession](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Confirm is the provider's return target. It always answers with a redirect
// to the front end; the failure page never learns why.
func (h PaymentHandler) Confirm(c *gin.Context) {
	if h.Commands == nil {
		c.Redirect(http.StatusSeeOther, h.FailureURL)
		return
	}
	cmd := paymentsapp.ConfirmPaymentCommand{SessionID: c.Query("session_id")}
	result, err := commands.Dispatch[paymentsapp.ConfirmPaymentCommand, dto.PaymentConfirmation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		kind := apperr.KindOf(err)
		c.Set(errorKindKey, string(kind))
		if h.Logger != nil {
			h.Logger.WarnContext(c.Request.Context(), "payment confirmation failed", "kind", kind, "error", err)
		}
		c.Redirect(http.StatusSeeOther, h.FailureURL)
		return
	}
	if result.Redirect != dto.RedirectSuccess {
		c.Redirect(http.StatusSeeOther, h.FailureURL)
		return
	}
	c.Redirect(http.StatusSeeOther, h.SuccessURL)
}

func (h PaymentHandler) returnOrigin(c *gin.Context) string {
	if origin := strings.TrimSpace(h.PublicURL); origin != "" {
		return strings.TrimRight(origin, "/")
	}
	if c.Request.Host == "" {
		return ""
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

var _ PaymentHTTP = PaymentHandler{}
