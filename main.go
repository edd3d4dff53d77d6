package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"safestreet/config"
	"safestreet/database"
	"safestreet/geocode"
	"safestreet/handlers"
	"safestreet/metrics"
	"safestreet/middleware"
	"safestreet/otp"
	"safestreet/rabbitmq"
	"safestreet/storage"
	"safestreet/utils/email"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db, err := setupDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.InitializeSchema(db); err != nil {
		log.WithError(err).Fatal("Failed to initialize database schema")
	}

	metrics.Register()

	geocoder := geocode.NewClient(cfg.NominatimURL)
	users := database.NewUserService(db, cfg.JWTSecret)
	uploads := database.NewUploadService(db, geocoder)

	sender := email.NewSender(cfg.SendGridAPIKey, cfg.FromName, cfg.FromEmail)
	authority := otp.NewAuthority(otp.NewMemoryStore(), users, users, sender, nil)

	store, err := storage.NewStore(cfg.UploadsDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up uploads directory")
	}

	var publisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL, "safestreet", "reports.created")
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, report events will not be published")
		} else {
			defer publisher.Close()
		}
	} else {
		log.Warn("AMQP_URL not set, report events will not be published")
	}

	h := handlers.NewHandlers(users, uploads, authority, store, publisher)
	router := setupRouter(h, users, store, cfg)

	log.Infof("SafeStreet backend starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func setupDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func setupRouter(h *handlers.Handlers, users *database.UserService, store *storage.Store, cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.SetTrustedProxies(cfg.TrustedProxies)

	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.StaticFS("/uploads", http.Dir(store.Dir()))

	api := router.Group("/api")
	{
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.POST("/send-otp", h.SendOtp)
		api.POST("/verify-otp", h.VerifyOtp)
		api.POST("/reset-password", h.ResetPassword)

		api.POST("/upload/new", h.UploadNew)
		api.GET("/upload/all", h.UploadAll)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(users))
		{
			authed.GET("/upload/nearby", h.UploadNearby)
			authed.PUT("/upload/resolve/:id", h.Resolve)
		}
	}

	return router
}
