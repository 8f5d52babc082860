package routes

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/config"
	"github.com/example/fastcart/internal/handlers"
	"github.com/example/fastcart/internal/middleware"
	"github.com/example/fastcart/internal/otp"
	"github.com/example/fastcart/internal/services"
)

// Register wires services, OTP lifecycle managers, and all route groups
// onto the Fiber app.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	sms := services.NewTwilioVerifyService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifySID, cfg.TwilioEnabled)
	email := newEmailSender(cfg)
	cache := newCacheStore(cfg)
	gst := services.NewGSTService(cfg.GSTAPIHost, cfg.GSTAPIKey)
	storage := newStorage(cfg)

	userManager := otp.NewManager(otp.NewUserStore(db), sms, email, cache, cfg.SMSFallbackCode, cfg.ResetOTPTTL, "user")
	sellerManager := otp.NewManager(otp.NewSellerStore(db), sms, email, cache, cfg.SMSFallbackCode, cfg.ResetOTPTTL, "seller")

	authHandler := handlers.NewAuthHandler(db, cfg, userManager)
	userResetHandler := handlers.NewPasswordResetHandler(userManager)
	sellerHandler := handlers.NewSellerHandler(db, cfg, sellerManager, gst)
	sellerResetHandler := handlers.NewPasswordResetHandler(sellerManager)
	categoryHandler := handlers.NewCategoryHandler(db, storage, cfg.MaxUploadMB)
	adminHandler := handlers.NewAdminHandler(db)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	// User onboarding and password reset.
	api.Post("/new/user", authHandler.Register)
	api.Post("/verfiy/motp", authHandler.VerifyMobileOTP)
	api.Post("/login", authHandler.Login)
	api.Post("/forget/password", userResetHandler.ForgetPassword)
	api.Post("/verify/forget/password", userResetHandler.VerifyForgetOTP)
	api.Post("/reset/password", userResetHandler.ResetPassword)

	// Seller onboarding mirrors the user flow.
	seller := api.Group("/seller")
	seller.Post("/new/user", sellerHandler.Register)
	seller.Post("/verfiy/motp", sellerHandler.VerifyMobileOTP)
	seller.Post("/login", sellerHandler.Login)
	seller.Post("/forget/password", sellerResetHandler.ForgetPassword)
	seller.Post("/verify/forget/password", sellerResetHandler.VerifyForgetOTP)
	seller.Post("/reset/password", sellerResetHandler.ResetPassword)
	seller.Post("/gst/verify", middleware.SellerAuth(cfg), sellerHandler.GSTVerify)

	// Category management, writes are admin only.
	userAuth := middleware.UserAuth(db, cfg)
	requireAdmin := middleware.RequireAdmin()
	api.Post("/createCategory", userAuth, requireAdmin, categoryHandler.Create)
	api.Get("/getAllCategory", userAuth, categoryHandler.GetAll)
	api.Get("/getCategoryById/:id", userAuth, categoryHandler.GetByID)
	api.Put("/updateCategory/:id", userAuth, requireAdmin, categoryHandler.Update)
	api.Delete("/deleteCategory/:id", userAuth, requireAdmin, categoryHandler.Delete)

	// Admin dashboard.
	admin := api.Group("/admin", userAuth, requireAdmin)
	admin.Get("/stats", adminHandler.DashboardStats)
}

func newEmailSender(cfg *config.Config) services.EmailSender {
	switch cfg.EmailProvider {
	case "resend":
		sender, err := services.NewResendEmailService(cfg.ResendAPIKey, cfg.EmailFrom)
		if err != nil {
			log.Printf("[Email] resend unavailable (%v), falling back to noop", err)
			return &services.NoopEmailService{}
		}
		return sender
	case "smtp":
		if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
			log.Printf("[Email] smtp credentials missing, falling back to noop")
			return &services.NoopEmailService{}
		}
		return services.NewSMTPEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	default:
		log.Printf("[Email] unknown provider %q, using noop", cfg.EmailProvider)
		return &services.NoopEmailService{}
	}
}

func newCacheStore(cfg *config.Config) otp.CacheStore {
	if cfg.OTPCacheMode == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("[Cache] redis unreachable (%v), falling back to memory store", err)
			return otp.NewMemoryStore()
		}
		log.Printf("[Cache] using redis at %s", cfg.RedisAddr)
		return otp.NewRedisStore(client)
	}
	return otp.NewMemoryStore()
}

func newStorage(cfg *config.Config) services.StorageService {
	if cfg.S3Bucket == "" {
		log.Printf("[Storage] S3_BUCKET_NAME not set, category image uploads will fail")
	}
	storage, err := services.NewS3Storage(context.Background(), cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.CDNBaseURL)
	if err != nil {
		log.Fatalf("[Storage] failed to initialize S3 client: %v", err)
	}
	return storage
}
