package properties

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/outbox"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/money"
	"staylane/internal/domain/user"
)

const (
	createPropertyKey  = "host.properties.create"
	repricePropertyKey = "host.properties.reprice"
)

type PropertyPayload struct {
	Name              string
	Tagline           string
	Description       string
	Category          string
	Country           string
	Image             string
	Guests            int
	Bedrooms          int
	Beds              int
	Baths             int
	Amenities         []string
	NightlyPriceMinor int64
}

type CreatePropertyCommand struct {
	HostID  string
	Payload PropertyPayload
}

func (c CreatePropertyCommand) Key() string { return createPropertyKey }

func (c CreatePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleHost} }

func (c CreatePropertyCommand) Validate() error {
	if strings.TrimSpace(c.Payload.Name) == "" {
		return domainproperty.ErrNameRequired
	}
	if c.Payload.NightlyPriceMinor <= 0 {
		return domainproperty.ErrInvalidPrice
	}
	if c.Payload.Guests < 0 || c.Payload.Bedrooms < 0 || c.Payload.Beds < 0 || c.Payload.Baths < 0 {
		return errors.New("property: counts cannot be negative")
	}
	return nil
}

type CreatePropertyHandler struct {
	Currency string
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CreatePropertyHandler) Handle(ctx context.Context, cmd CreatePropertyCommand) (dto.Property, error) {
	const op = "host.properties.create"
	unit, err := handlersupport.UnitFromContext(ctx)
	if err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	price, err := money.New(cmd.Payload.NightlyPriceMinor, h.Currency)
	if err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	p := cmd.Payload
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:           domainproperty.PropertyID(uuid.NewString()),
		Owner:        domainproperty.OwnerID(strings.TrimSpace(cmd.HostID)),
		Name:         p.Name,
		Tagline:      p.Tagline,
		Description:  p.Description,
		Category:     p.Category,
		Country:      p.Country,
		Image:        p.Image,
		Guests:       p.Guests,
		Bedrooms:     p.Bedrooms,
		Beds:         p.Beds,
		Baths:        p.Baths,
		Amenities:    p.Amenities,
		NightlyPrice: price,
		Now:          time.Now(),
	})
	if err != nil {
		return dto.Property{}, apperr.Validation(op, err.Error(), err)
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	if h.Logger != nil {
		h.Logger.Info("property created", "property_id", prop.ID, "owner_id", prop.Owner)
	}
	return dto.MapProperty(prop), nil
}

// RepricePropertyCommand changes the nightly price. Existing bookings keep
// the totals computed when they were created.
type RepricePropertyCommand struct {
	HostID            string
	PropertyID        string
	NightlyPriceMinor int64
}

func (c RepricePropertyCommand) Key() string { return repricePropertyKey }

func (c RepricePropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleHost} }

func (c RepricePropertyCommand) Validate() error {
	if c.NightlyPriceMinor <= 0 {
		return domainproperty.ErrInvalidPrice
	}
	return nil
}

type RepricePropertyHandler struct {
	Currency string
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *RepricePropertyHandler) Handle(ctx context.Context, cmd RepricePropertyCommand) (dto.Property, error) {
	const op = "host.properties.reprice"
	unit, err := handlersupport.UnitFromContext(ctx)
	if err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(strings.TrimSpace(cmd.PropertyID)))
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.Property{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.Property{}, apperr.Internal(op, err)
	}
	price, err := money.New(cmd.NightlyPriceMinor, h.Currency)
	if err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	if err := prop.Reprice(domainproperty.OwnerID(strings.TrimSpace(cmd.HostID)), price, time.Now()); err != nil {
		if errors.Is(err, domainproperty.ErrNotOwner) {
			return dto.Property{}, apperr.New(apperr.KindForbidden, op, "only the owner can change the price", err)
		}
		return dto.Property{}, apperr.Validation(op, err.Error(), err)
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	return dto.MapProperty(prop), nil
}

var (
	_ commands.Handler[CreatePropertyCommand, dto.Property]  = (*CreatePropertyHandler)(nil)
	_ commands.Handler[RepricePropertyCommand, dto.Property] = (*RepricePropertyHandler)(nil)
)
