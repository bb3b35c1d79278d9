package properties

import (
	"context"
	"errors"
	"strings"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
)

const (
	getPropertyKey    = "properties.get"
	listPropertiesKey = "properties.list"
)

type GetPropertyQuery struct {
	PropertyID string
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
	const op = "properties.get"
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	prop, err := unit.Properties().ByID(execCtx, domainproperty.PropertyID(strings.TrimSpace(q.PropertyID)))
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.Property{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.Property{}, apperr.Internal(op, err)
	}
	return dto.MapProperty(prop), nil
}

// ListPropertiesQuery pages through properties, optionally of one owner.
type ListPropertiesQuery struct {
	OwnerID string
	Limit   int
	Offset  int
}

func (q ListPropertiesQuery) Key() string { return listPropertiesKey }

type ListPropertiesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertiesHandler) Handle(ctx context.Context, q ListPropertiesQuery) (dto.PropertyCollection, error) {
	const op = "properties.list"
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	props, err := unit.Properties().List(execCtx, domainproperty.ListFilter{
		Owner:  domainproperty.OwnerID(strings.TrimSpace(q.OwnerID)),
		Limit:  normalizeLimit(q.Limit),
		Offset: max(q.Offset, 0),
	})
	if err != nil {
		return dto.PropertyCollection{}, apperr.Internal(op, err)
	}
	items := make([]dto.Property, 0, len(props))
	for _, p := range props {
		items = append(items, dto.MapProperty(p))
	}
	return dto.PropertyCollection{Items: items}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 24
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var (
	_ queries.Handler[GetPropertyQuery, dto.Property]               = (*GetPropertyHandler)(nil)
	_ queries.Handler[ListPropertiesQuery, dto.PropertyCollection] = (*ListPropertiesHandler)(nil)
)
