package dto

// PaymentSession is the client handle for embedded or hosted checkout.
type PaymentSession struct {
	SessionID    string `json:"session_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	URL          string `json:"url,omitempty"`
}

type RedirectTarget string

const (
	RedirectSuccess RedirectTarget = "success"
	RedirectFailure RedirectTarget = "failure"
)

type PaymentConfirmation struct {
	BookingID        string         `json:"booking_id,omitempty"`
	Redirect         RedirectTarget `json:"redirect"`
	AlreadyConfirmed bool           `json:"already_confirmed"`
}
