package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/payment"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/gateway"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/storage"
	"storefront/internal/logger"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"

	"go.uber.org/zap"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//決済インテントの冪等キャッシュ（REDIS_URLが無ければ無効）
	var intents payment.IntentStore = cache.NoopIntentStore{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, payment intent cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			intents = cache.NewRedisIntentStore(rdb)
		}
	}

	//商品画像（MINIO_ENDPOINTが無ければアップロード無効）
	var images usecase.ImageStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Warn("minio unavailable, image upload disabled", zap.Error(err))
		} else {
			images = store
		}
	}

	razorpay := gateway.NewRazorpayClient(gateway.RazorpayConfig{
		KeyID:      cfg.RazorpayKeyID,
		KeySecret:  cfg.RazorpayKeySecret,
		BaseURL:    cfg.RazorpayBaseURL,
		Timeout:    cfg.GatewayTimeout,
		MaxRetries: cfg.GatewayMaxRetries,
	}, log.Named("razorpay"))

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo), log)
	productUC := usecase.NewProductUsecase(productRepo, txm, images, log)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	orderUC := usecase.NewOrderUsecase(txm, addressRepo, razorpay, cfg.RazorpayKeySecret, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, log)
	userAdminUC := usecase.NewUserAdminUsecase(userRepo, rtRepo, orderRepo, productRepo, wishlistRepo, auditRepo, log)
	paymentUC := usecase.NewPaymentUsecase(usecase.PaymentConfig{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		IntentTTL:     24 * time.Hour,
	}, razorpay, intents, orderRepo, log)

	//Handler生成
	e := server.New(cfg, log, server.Handlers{
		Users:        userRepo,
		Health:       handler.NewHealthHandler(sqlDB),
		Auth:         handler.NewAuthHandler(authUC, cfg.RefreshTTL, cfg.IsProduction()),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Cart:         handler.NewCartHandler(cartUC),
		Wishlist:     handler.NewWishlistHandler(wishlistUC),
		Address:      handler.NewAddressHandler(addressUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:    handler.NewAdminUserHandler(userAdminUC, authUC),
		Dashboard:    handler.NewDashboardHandler(userAdminUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
	})

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Start(ctx, e, addr, log)
}
