package main

import (
	"context"
	"errors"
	"os"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 何度実行しても同じ状態になる
func main() {
	config.LoadEnvFile(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()

	if err := seedAdmin(ctx, cfg, infraRepo.NewUserGormRepository(gormDB), log); err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}
	if err := seedCategories(ctx, infraRepo.NewCategoryGormRepository(gormDB), log); err != nil {
		log.Fatal("seed categories", zap.Error(err))
	}
	if err := seedProducts(ctx, infraRepo.NewProductGormRepository(gormDB), log); err != nil {
		log.Fatal("seed products", zap.Error(err))
	}
	log.Info("seed completed")
}

func seedAdmin(ctx context.Context, cfg config.Config, users repo.UserRepository, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		log.Warn("ADMIN_EMAIL not set, skipping admin user")
		return nil
	}

	if _, err := users.FindByEmail(ctx, cfg.AdminEmail); err == nil {
		log.Info("admin already exists", zap.String("email", cfg.AdminEmail))
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := users.Create(ctx, &model.User{
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		Role:         model.RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return err
	}
	log.Info("admin created", zap.String("email", cfg.AdminEmail))
	return nil
}

var categories = []model.Category{
	{Name: "Electronics", Description: "Phones, audio and accessories"},
	{Name: "Books", Description: "Fiction and non-fiction"},
	{Name: "Home", Description: "Kitchen and living"},
}

func seedCategories(ctx context.Context, cats repo.CategoryRepository, log *zap.Logger) error {
	for _, c := range categories {
		_, err := cats.Create(ctx, c)
		if errors.Is(err, repo.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		log.Info("category created", zap.String("name", c.Name))
	}
	return nil
}

func seedProducts(ctx context.Context, products repo.ProductRepository, log *zap.Logger) error {
	n, err := products.CountActive(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("catalog already seeded", zap.Int64("products", n))
		return nil
	}

	samples := []model.Product{
		{Name: "Wireless Earbuds", Description: "Bluetooth 5.3, 24h battery", Price: decimal.RequireFromString("2499.00"), Stock: 50, Category: "Electronics"},
		{Name: "USB-C Charger 65W", Description: "GaN fast charger", Price: decimal.RequireFromString("1799.00"), Discount: decimal.RequireFromString("200.00"), Stock: 80, Category: "Electronics"},
		{Name: "The Pragmatic Programmer", Description: "20th anniversary edition", Price: decimal.RequireFromString("899.00"), Stock: 30, Category: "Books"},
		{Name: "Ceramic Mug", Description: "350ml, dishwasher safe", Price: decimal.RequireFromString("349.00"), Stock: 120, Category: "Home"},
	}
	for _, p := range samples {
		p.IsActive = true
		p.Images = []string{}
		if _, err := products.Create(ctx, p); err != nil {
			return err
		}
	}
	log.Info("products created", zap.Int("count", len(samples)))
	return nil
}
