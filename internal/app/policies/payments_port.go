package policies

import (
	"context"

	"staylane/internal/domain/payment"
)

// PaymentsPort is the checkout provider. Implementations must honor ctx
// deadlines; callers bound every call with a timeout.
type PaymentsPort interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	RetrieveSession(ctx context.Context, id payment.SessionID) (*payment.Session, error)
}
