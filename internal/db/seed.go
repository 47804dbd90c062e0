package db

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/services"
)

// SeedFile mirrors the YAML layout accepted via SEED_FILE. The home
// location always exists once seeding ran; shops and products are optional.
type SeedFile struct {
	Home struct {
		Name            string `yaml:"name"`
		ShowDefaultAisle *bool  `yaml:"showDefaultAisle"`
	} `yaml:"home"`
	Shops []struct {
		Name   string `yaml:"name"`
		Pinned bool   `yaml:"pinned"`
	} `yaml:"shops"`
	Products []struct {
		Name    string  `yaml:"name"`
		InStock bool    `yaml:"inStock"`
		Qty     float64 `yaml:"qtyNeeded"`
	} `yaml:"products"`
}

// Seed bootstraps first-run data. It is a no-op once a home location exists,
// so it is safe to call on every start.
func Seed(log *logger.Logger, locations services.LocationService, products services.ProductService) error {
	seedLog := log.With("service", "Seed")
	ctx := context.Background()

	home, err := locations.GetHome(ctx)
	if err != nil {
		return err
	}
	if home != nil {
		return nil
	}

	seed := SeedFile{}
	seed.Home.Name = "Home"
	if path := os.Getenv("SEED_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("failed to parse seed file: %w", err)
		}
		if seed.Home.Name == "" {
			seed.Home.Name = "Home"
		}
	}

	seedLog.Info("Seeding initial data...", "home", seed.Home.Name)

	homeLoc := &domain.Location{
		Type:          domain.LocationTypeHome,
		Name:          seed.Home.Name,
		DefaultFilter: domain.FilterNeeded,
		Expanded:      true,
	}
	if seed.Home.ShowDefaultAisle != nil {
		homeLoc.ShowDefaultAisle = *seed.Home.ShowDefaultAisle
	} else {
		homeLoc.ShowDefaultAisle = true
	}
	if _, err := locations.Add(ctx, homeLoc); err != nil {
		return err
	}

	for _, shop := range seed.Shops {
		_, err := locations.Add(ctx, &domain.Location{
			Type:             domain.LocationTypeShop,
			Name:             shop.Name,
			Pinned:           shop.Pinned,
			DefaultFilter:    domain.FilterNeeded,
			Expanded:         true,
			ShowDefaultAisle: true,
		})
		if err != nil {
			return err
		}
	}

	for _, p := range seed.Products {
		_, err := products.Add(ctx, &domain.Product{
			Name:         p.Name,
			InStock:      p.InStock,
			QtyNeeded:    p.Qty,
			QtyIncrement: 1,
			TrackingMode: domain.TrackingModeToggle,
		})
		if err != nil {
			return err
		}
	}

	seedLog.Info("Seed complete", "shops", len(seed.Shops), "products", len(seed.Products))
	return nil
}
