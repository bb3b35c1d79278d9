package reviews

import (
	"context"
	"time"

	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
)

func recalculatePropertyRating(ctx context.Context, unit uow.UnitOfWork, propertyID domainproperty.PropertyID, now time.Time) error {
	count, sum, err := unit.Reviews().CountByProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	average := 0.0
	if count > 0 {
		average = float64(sum) / float64(count)
	}

	prop, err := unit.Properties().ByID(ctx, propertyID)
	if err != nil {
		return err
	}
	prop.UpdateRating(average, count, now)
	return unit.Properties().Save(ctx, prop)
}
