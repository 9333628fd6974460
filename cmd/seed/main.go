// Command seed fills the products collection with a demo electronics
// catalog. Every invocation inserts a fresh set of rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/utafrali/electroshop/internal/config"
	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/repository/postgres"
	"github.com/utafrali/electroshop/migrations"
	"github.com/utafrali/electroshop/pkg/database"
	"github.com/utafrali/electroshop/pkg/logger"
)

type seedProduct struct {
	name     string
	category string
	price    string
	offer    string
	image    string
	stock    int
}

var catalog = []seedProduct{
	{"Galaxy S24 Ultra", "smartphones", "1299.99", "1149.99", "/images/products/s24-ultra.jpg", 25},
	{"iPhone 15 Pro", "smartphones", "999.00", "", "/images/products/iphone-15-pro.jpg", 40},
	{"Pixel 8", "smartphones", "699.00", "599.00", "/images/products/pixel-8.jpg", 30},
	{"MacBook Air 13 M3", "laptops", "1099.00", "", "/images/products/macbook-air-m3.jpg", 15},
	{"ThinkPad X1 Carbon Gen 12", "laptops", "1749.00", "1599.00", "/images/products/x1-carbon.jpg", 8},
	{"XPS 15", "laptops", "1499.99", "", "/images/products/xps-15.jpg", 12},
	{"WH-1000XM5", "audio", "399.99", "329.99", "/images/products/wh-1000xm5.jpg", 50},
	{"AirPods Pro 2", "audio", "249.00", "", "/images/products/airpods-pro-2.jpg", 60},
	{"SoundLink Flex", "audio", "149.00", "119.00", "", 35},
	{"OLED C3 55\"", "tv", "1499.99", "1299.99", "/images/products/oled-c3.jpg", 6},
	{"Neo QLED QN90C 65\"", "tv", "1999.99", "", "/images/products/qn90c.jpg", 4},
	{"PlayStation 5 Slim", "gaming", "499.99", "449.99", "/images/products/ps5-slim.jpg", 20},
	{"Switch OLED", "gaming", "349.99", "", "/images/products/switch-oled.jpg", 22},
	{"Apple Watch Series 9", "wearables", "399.00", "359.00", "/images/products/watch-s9.jpg", 18},
	{"Galaxy Watch 6", "wearables", "299.99", "", "", 14},
	{"MX Master 3S", "accessories", "99.99", "89.99", "/images/products/mx-master-3s.jpg", 70},
	{"USB-C 100W Charger", "accessories", "59.99", "", "", 120},
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	migrate := flag.Bool("migrate", true, "apply migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if *migrate {
		if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	repo := postgres.NewProductRepository(pool)
	products, err := buildProducts(catalog, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := repo.Create(ctx, p); err != nil {
			return fmt.Errorf("insert %q: %w", p.Name, err)
		}
	}

	log.Info("catalog seeded", slog.Int("products", len(products)))
	return nil
}

// buildProducts turns the seed table into products. created_at is spaced one
// minute apart, newest last, so the listing order is stable.
func buildProducts(rows []seedProduct, now time.Time) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(rows))
	for i, row := range rows {
		price, err := decimal.NewFromString(row.price)
		if err != nil {
			return nil, fmt.Errorf("price of %q: %w", row.name, err)
		}
		created := now.Add(time.Duration(i-len(rows)) * time.Minute)
		p := &domain.Product{
			ID:        uuid.NewString(),
			Name:      row.name,
			Price:     price,
			Category:  row.category,
			Image:     row.image,
			Stock:     row.stock,
			CreatedAt: created,
			UpdatedAt: created,
		}
		if row.offer != "" {
			offer, err := decimal.NewFromString(row.offer)
			if err != nil {
				return nil, fmt.Errorf("offer price of %q: %w", row.name, err)
			}
			p.OfferPrice = &offer
		}
		out = append(out, p)
	}
	return out, nil
}
