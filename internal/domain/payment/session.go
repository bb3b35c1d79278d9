package payment

import (
	"errors"
	"strings"

	"staylane/internal/domain/shared/money"
)

var (
	ErrSessionIDRequired = errors.New("payment: session id required")
	// ErrSessionNotFound means the provider does not know the session id.
	ErrSessionNotFound = errors.New("payment: session not found")
)

// SessionIDPlaceholder is substituted by the provider with the real session
// id when it redirects back to the return URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

type SessionID string

type Status string

const (
	StatusOpen     Status = "open"
	StatusComplete Status = "complete"
	StatusExpired  Status = "expired"
)

// Session is the provider's checkout resource. It is fetched on demand and
// never stored.
type Session struct {
	ID           SessionID
	Status       Status
	Metadata     map[string]string
	ClientSecret string
	URL          string
	AmountTotal  money.Money
}

// Complete is true only for the provider's completion value; anything else,
// including unknown statuses, is not complete.
func (s *Session) Complete() bool {
	return s != nil && s.Status == StatusComplete
}

// Handle is what the client needs to continue checkout.
func (s *Session) Handle() string {
	if s.ClientSecret != "" {
		return s.ClientSecret
	}
	return s.URL
}

type LineItem struct {
	Name        string
	Description string
	Image       string
	Amount      money.Money
	Quantity    int64
}

// CheckoutRequest describes a single-item checkout for one booking.
type CheckoutRequest struct {
	Metadata  BookingMetadata
	LineItem  LineItem
	ReturnURL string
}

func ReturnURL(origin, path string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path + "?session_id=" + SessionIDPlaceholder
}

func ParseSessionID(raw string) (SessionID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrSessionIDRequired
	}
	return SessionID(trimmed), nil
}
