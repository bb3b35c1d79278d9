package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"staylane/internal/app/uow"
	domainproperty "staylane/internal/domain/property"
	"staylane/internal/domain/shared/money"
	"staylane/internal/infra/config"
)

type propertyFixture struct {
	ID           string   `json:"id"`
	Owner        string   `json:"owner"`
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Country      string   `json:"country"`
	Image        string   `json:"image"`
	Guests       int      `json:"guests"`
	Bedrooms     int      `json:"bedrooms"`
	Beds         int      `json:"beds"`
	Baths        int      `json:"baths"`
	Amenities    []string `json:"amenities"`
	NightlyPrice int64    `json:"nightly_price"`
}

// loadFixtures seeds the catalog for local runs. A missing file is not an error.
func loadFixtures(ctx context.Context, factory uow.UoWFactory, cfg config.Config, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	now := time.Now().UTC()
	imported := 0
	for _, fx := range fixtures {
		price, err := money.New(fx.NightlyPrice, cfg.Currency)
		if err != nil {
			logger.Error("fixture price invalid", "property_id", fx.ID, "error", err)
			continue
		}
		prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
			ID:           domainproperty.PropertyID(fx.ID),
			Owner:        domainproperty.OwnerID(fx.Owner),
			Name:         fx.Name,
			Tagline:      fx.Tagline,
			Description:  fx.Description,
			Category:     fx.Category,
			Country:      fx.Country,
			Image:        fx.Image,
			Guests:       fx.Guests,
			Bedrooms:     fx.Bedrooms,
			Beds:         fx.Beds,
			Baths:        fx.Baths,
			Amenities:    fx.Amenities,
			NightlyPrice: price,
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		prop.ClearEvents()
		if err := unit.Properties().Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	logger.Info("fixtures imported", "count", imported, "path", path)
	return nil
}
