package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/user"
)

const listHostReservationsKey = "host.reservations.list"

// ListHostReservationsQuery lists paid bookings on every property the host owns.
type ListHostReservationsQuery struct {
	HostID string
}

func (q ListHostReservationsQuery) Key() string { return listHostReservationsKey }

func (q ListHostReservationsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleHost} }

type ListHostReservationsHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Logger     *slog.Logger
}

func (h *ListHostReservationsHandler) Handle(ctx context.Context, q ListHostReservationsQuery) (dto.HostReservationCollection, error) {
	const op = "host.reservations.list"
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostReservationCollection{}, apperr.New(apperr.KindUnauthorized, op, "authentication required", nil)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostReservationCollection{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	properties, err := unit.Properties().List(execCtx, domainproperty.ListFilter{Owner: domainproperty.OwnerID(hostID)})
	if err != nil {
		return dto.HostReservationCollection{}, apperr.Internal(op, err)
	}

	items := make([]dto.HostReservation, 0)
	revenue := dto.MoneyDTO{Currency: strings.ToUpper(h.Currency)}
	for _, prop := range properties {
		bookings, err := unit.Bookings().ListPaidByProperty(execCtx, prop.ID)
		if err != nil {
			return dto.HostReservationCollection{}, apperr.Internal(op, err)
		}
		for _, b := range bookings {
			items = append(items, dto.MapHostReservation(b, prop))
			if b.OrderTotal().Currency == revenue.Currency {
				revenue.Amount += b.OrderTotal().Amount
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CheckIn.Before(items[j].CheckIn)
	})

	if h.Logger != nil {
		h.Logger.Debug("host reservations listed", "host_id", hostID, "properties", len(properties), "count", len(items))
	}
	return dto.HostReservationCollection{Items: items, Revenue: revenue}, nil
}

var _ queries.Handler[ListHostReservationsQuery, dto.HostReservationCollection] = (*ListHostReservationsHandler)(nil)
