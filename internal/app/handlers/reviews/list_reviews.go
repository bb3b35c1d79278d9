package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"staylane/internal/app/apperr"
	"staylane/internal/app/dto"
	handlersupport "staylane/internal/app/handlers/support"
	"staylane/internal/app/queries"
	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
)

const listPropertyReviewsKey = "reviews.property.list"

// ListPropertyReviewsQuery retrieves a page of reviews for a property.
type ListPropertyReviewsQuery struct {
	PropertyID string
	Limit      int
	Offset     int
}

func (q ListPropertyReviewsQuery) Key() string { return listPropertyReviewsKey }

type ListPropertyReviewsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListPropertyReviewsHandler) Handle(ctx context.Context, q ListPropertyReviewsQuery) (dto.ReviewCollection, error) {
	const op = "reviews.property.list"
	limit := normalizeLimit(q.Limit)
	offset := max(q.Offset, 0)

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, apperr.Internal(op, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	propertyID := domainproperty.PropertyID(strings.TrimSpace(q.PropertyID))
	if _, err := unit.Properties().ByID(execCtx, propertyID); err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return dto.ReviewCollection{}, apperr.NotFound(op, "property not found", err)
		}
		return dto.ReviewCollection{}, apperr.Internal(op, err)
	}

	total, _, err := unit.Reviews().CountByProperty(execCtx, propertyID)
	if err != nil {
		return dto.ReviewCollection{}, apperr.Internal(op, err)
	}
	page, err := unit.Reviews().ListByProperty(execCtx, propertyID, limit, offset)
	if err != nil {
		return dto.ReviewCollection{}, apperr.Internal(op, err)
	}

	items := make([]dto.Review, 0, len(page))
	for _, review := range page {
		items = append(items, dto.MapReview(review))
	}
	if h.Logger != nil {
		h.Logger.Debug("property reviews listed", "property_id", propertyID, "count", len(items), "total", total)
	}
	return dto.ReviewCollection{Items: items, Total: total}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var _ queries.Handler[ListPropertyReviewsQuery, dto.ReviewCollection] = (*ListPropertyReviewsHandler)(nil)
