package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/apperr"
)

const errorKindKey = "error_kind"

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPayment:
		return http.StatusPaymentRequired
	case apperr.KindExternal:
		return http.StatusBadGateway
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders the user-facing message only. The cause goes to the log.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)
	c.Set(errorKindKey, string(kind))
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"kind", kind,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.MessageOf(err), "kind": string(kind)})
}

func badRequest(c *gin.Context, message string) {
	c.Set(errorKindKey, string(apperr.KindValidation))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "kind": string(apperr.KindValidation)})
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": what + " unavailable"})
}
