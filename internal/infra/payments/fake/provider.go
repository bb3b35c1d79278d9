package fake

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"staylane/internal/app/policies"
	"staylane/internal/domain/payment"
)

// Provider is an in-process checkout provider for local runs and tests.
// With AutoComplete set, new sessions are already paid and their URL is the
// return URL with the session id filled in.
type Provider struct {
	AutoComplete bool

	mu       sync.Mutex
	sessions map[payment.SessionID]*payment.Session
	created  []payment.CheckoutRequest

	// FailNext makes the next call return this error.
	FailNext error
}

func NewProvider(autoComplete bool) *Provider {
	return &Provider{AutoComplete: autoComplete, sessions: make(map[payment.SessionID]*payment.Session)}
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	id := payment.SessionID("cs_fake_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	status := payment.StatusOpen
	if p.AutoComplete {
		status = payment.StatusComplete
	}
	amount := req.LineItem.Amount
	if req.LineItem.Quantity > 1 {
		amount = amount.Multiply(req.LineItem.Quantity)
	}
	s := &payment.Session{
		ID:           id,
		Status:       status,
		Metadata:     req.Metadata.Map(),
		ClientSecret: string(id) + "_secret",
		URL:          strings.ReplaceAll(req.ReturnURL, payment.SessionIDPlaceholder, string(id)),
		AmountTotal:  amount,
	}
	p.ensure()
	p.sessions[id] = s
	p.created = append(p.created, req)
	return cloneSession(s), nil
}

func (p *Provider) RetrieveSession(ctx context.Context, id payment.SessionID) (*payment.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// Put registers a session as the provider would report it.
func (p *Provider) Put(s payment.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensure()
	p.sessions[s.ID] = cloneSession(&s)
}

// SetStatus moves an existing session to status.
func (p *Provider) SetStatus(id payment.SessionID, status payment.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return errors.New("fake: unknown session")
	}
	s.Status = status
	return nil
}

func (p *Provider) Created() []payment.CheckoutRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payment.CheckoutRequest(nil), p.created...)
}

func (p *Provider) ensure() {
	if p.sessions == nil {
		p.sessions = make(map[payment.SessionID]*payment.Session)
	}
}

func (p *Provider) takeFailure() error {
	err := p.FailNext
	p.FailNext = nil
	return err
}

func cloneSession(s *payment.Session) *payment.Session {
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

var _ policies.PaymentsPort = (*Provider)(nil)
