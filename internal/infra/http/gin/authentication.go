package ginserver

import (
	"log/slog"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/apperr"
	"staylane/internal/app/middleware"
	"staylane/internal/app/services/auth"
	domainuser "staylane/internal/domain/user"
)

const principalContextKey = "staylane.principal"

type principal struct {
	ID        domainuser.ID
	Email     string
	Name      string
	Roles     []domainuser.Role
	Token     string
	CreatedAt time.Time
}

type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

// Handle resolves a bearer token when one is present. Anonymous requests pass
// through; the application layer decides what needs an actor.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !apperr.Is(err, apperr.KindUnauthorized) && m.Logger != nil {
			m.Logger.Warn("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	user := resolved.User
	p := principal{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     append([]domainuser.Role(nil), user.Roles...),
		Token:     token,
		CreatedAt: user.CreatedAt,
	}
	c.Set(principalContextKey, p)
	ctx := middleware.WithActor(c.Request.Context(), middleware.Actor{ID: p.ID, Roles: p.Roles})
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireUser aborts with 401 for anonymous callers. Role checks live in the
// command pipeline.
func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		err := apperr.New(apperr.KindUnauthorized, "http.auth", "authentication required", nil)
		respondError(c, nil, err)
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
