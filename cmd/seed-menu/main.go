package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/digital-hub/db"
	"github.com/xenking/digital-hub/internal/domain/auth"
	"github.com/xenking/digital-hub/internal/domain/menu"
	"github.com/xenking/digital-hub/internal/storage/postgres"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Available   *bool           `json:"available"`
}

func main() {
	var (
		databaseURL  string
		menuFile     string
		apiKey       string
		apiKeyPepper string
		apiKeyScopes string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "path to a menu JSON file (default: embedded menu)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or HUB_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or HUB_API_KEY_PEPPER env)")
	flag.StringVar(&apiKeyScopes, "api-key-scopes", auth.ScopeOrders, "comma-separated scopes of the seeded key (orders, staff)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		lg.Fatal("Load .env", zap.Error(err))
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("HUB_DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("HUB_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("HUB_API_KEY_PEPPER")
	}

	var scopes []string
	for _, sc := range strings.Split(apiKeyScopes, ",") {
		if sc = strings.TrimSpace(sc); sc != "" {
			scopes = append(scopes, sc)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, menuFile, apiKey, apiKeyPepper, scopes); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, menuFile, apiKey, pepper string, scopes []string) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, lg, postgres.NewMenuRepository(pool), menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if apiKey == "" {
		lg.Warn("No API key given, order routes stay locked")
		return nil
	}
	if err := seedAPIKey(ctx, lg, postgres.NewAPIKeyRepository(pool), apiKey, pepper, scopes); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedMenu(ctx context.Context, lg *zap.Logger, repo *postgres.MenuRepository, menuFile string) error {
	data := db.Menu
	if menuFile != "" {
		lg.Info("Reading menu file", zap.String("path", menuFile))
		b, err := os.ReadFile(menuFile)
		if err != nil {
			return errors.Wrap(err, "read menu file")
		}
		data = b
	}

	var items []menuItemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	lg.Info("Upserting menu", zap.Int("count", len(items)))
	for _, it := range items {
		available := it.Available == nil || *it.Available
		if err := repo.Upsert(ctx, menu.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			ImageURL:    it.ImageURL,
			Available:   available,
		}); err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.ID)
		}
		lg.Info("Upserted menu item", zap.String("id", it.ID), zap.String("name", it.Name))
	}
	return nil
}

func seedAPIKey(ctx context.Context, lg *zap.Logger, repo *postgres.APIKeyRepository, apiKey, pepper string, scopes []string) error {
	info := auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Front desk",
		Scopes:  scopes,
	}
	if err := repo.Upsert(ctx, info); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}
	lg.Info("Upserted API key",
		zap.String("id", info.ID),
		zap.String("name", info.Name),
		zap.Strings("scopes", info.Scopes),
	)
	return nil
}
