package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"autoescuela/internal/api"
	"autoescuela/internal/auth"
	"autoescuela/internal/cache"
	"autoescuela/internal/config"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
	"autoescuela/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init()
	defer logger.Sync()
	log := logger.Get()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open DB", zap.Error(err))
	}
	if err := database.Ping(); err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}

	redisCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		// slot caching is an optimization, the API works without it
		log.Warn("redis unavailable, slot caching disabled", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	stripe.Key = cfg.StripeSecretKey

	// repositories
	userRepo := repository.NewUserRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	bookingRepo := repository.NewBookingRepository(database)
	packageRepo := repository.NewPackageRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	jobRepo := repository.NewJobRepository(database)

	// services
	stripeSvc := service.NewStripeService(cfg.FrontendBaseURL)
	senderSvc := service.NewSenderService(cfg)
	notifySvc := service.NewNotifyService(senderSvc)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	catalogSvc := service.NewCatalogService(catalogRepo)
	availabilitySvc := service.NewAvailabilityService(catalogRepo, bookingRepo, redisCache, cfg.LessonDuration, cfg.SlotCacheTTL)
	paymentSvc := &service.PaymentService{
		Payments: paymentRepo,
		Bookings: bookingRepo,
		Packages: packageRepo,
		Gateway:  stripeSvc,
		Notifier: notifySvc,
		Slots:    availabilitySvc,
		Currency: "eur",
	}
	bookingSvc := &service.BookingService{
		Repo:           bookingRepo,
		Catalog:        catalogRepo,
		Packages:       packageRepo,
		Users:          userRepo,
		Payments:       paymentSvc,
		Notifier:       notifySvc,
		Slots:          availabilitySvc,
		LessonDuration: cfg.LessonDuration,
		LessonPrice:    cfg.LessonPriceCents,
	}
	packageSvc := &service.PackageService{
		Repo:     packageRepo,
		Bookings: bookingRepo,
		Users:    userRepo,
		Payments: paymentSvc,
	}
	jobSvc := service.NewJobService(jobRepo, notifySvc, availabilitySvc)

	// handlers
	authHandler := api.NewAuthHandler(authSvc)
	catalogHandler := api.NewCatalogHandler(catalogSvc)
	bookingHandler := api.NewBookingHandler(bookingSvc, availabilitySvc)
	packageHandler := api.NewPackageHandler(packageSvc)
	paymentHandler := api.NewPaymentHandler(cfg.StripeWebhookSecret, paymentSvc, bookingRepo, userRepo, cfg.LessonPriceCents)
	adminHandler := api.NewAdminHandler(bookingSvc, catalogSvc)

	mw := auth.NewMiddleware(cfg.JWTSecret)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/admin/login", authHandler.AdminLogin).Methods("POST")
	r.HandleFunc("/api/locations", catalogHandler.ListLocations).Methods("GET")
	r.HandleFunc("/api/instructors", catalogHandler.ListInstructors).Methods("GET")
	r.HandleFunc("/api/vehicles/available", catalogHandler.GetAvailableVehicles).Methods("POST")
	r.HandleFunc("/api/bookings/slots", bookingHandler.GetAvailableSlots).Methods("GET")
	r.HandleFunc("/api/packages", packageHandler.ListPackages).Methods("GET")
	r.HandleFunc("/api/payments/webhook", paymentHandler.HandleWebhook).Methods("POST")
	r.HandleFunc("/api/payments/session", paymentHandler.GetBookingBySession).Methods("GET")

	// Student endpoints (authenticated)
	student := r.PathPrefix("/api").Subrouter()
	student.Use(mw.RequireAuth)
	student.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")
	student.HandleFunc("/bookings", bookingHandler.ListMyBookings).Methods("GET")
	student.HandleFunc("/bookings/{code}", bookingHandler.GetBooking).Methods("GET")
	student.HandleFunc("/bookings/{code}", bookingHandler.CancelBooking).Methods("DELETE")
	student.HandleFunc("/packages/credits", packageHandler.GetUserCredits).Methods("GET")
	student.HandleFunc("/packages/credits/use", packageHandler.UseCredits).Methods("POST")
	student.HandleFunc("/packages/purchase", packageHandler.Purchase).Methods("POST")
	student.HandleFunc("/payments/create", paymentHandler.CreatePayment).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(mw.RequireAdmin)
	admin.HandleFunc("/users", authHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{id:[0-9]+}", adminHandler.UpdateBookingStatus).Methods("PUT")
	admin.HandleFunc("/bookings/{code}", adminHandler.CancelBooking).Methods("DELETE")
	admin.HandleFunc("/locations", adminHandler.CreateLocation).Methods("POST")
	admin.HandleFunc("/locations/{id}", adminHandler.UpdateLocation).Methods("PUT")
	admin.HandleFunc("/locations/{id}", adminHandler.DeleteLocation).Methods("DELETE")
	admin.HandleFunc("/instructors", adminHandler.CreateInstructor).Methods("POST")
	admin.HandleFunc("/instructors/{id}", adminHandler.UpdateInstructor).Methods("PUT")
	admin.HandleFunc("/instructors/{id}", adminHandler.DeleteInstructor).Methods("DELETE")
	admin.HandleFunc("/instructors/{id}/schedule", adminHandler.UpsertSchedule).Methods("PUT")
	admin.HandleFunc("/vehicles", adminHandler.CreateVehicle).Methods("POST")
	admin.HandleFunc("/vehicles/{id}", adminHandler.UpdateVehicle).Methods("PUT")
	admin.HandleFunc("/vehicles/{id}", adminHandler.DeleteVehicle).Methods("DELETE")

	// Background jobs
	c := cron.New()
	c.AddFunc("*/10 * * * *", func() {
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			log.Error("cron job failed", zap.Error(err))
		}
	})
	c.AddFunc("*/10 * * * *", func() {
		if err := jobSvc.ExpireStalePendingBookings(30 * time.Minute); err != nil {
			log.Error("cron job failed", zap.Error(err))
		}
	})
	c.AddFunc("0 * * * *", func() {
		if err := jobSvc.SendUpcomingReminders(24 * time.Hour); err != nil {
			log.Error("cron job failed", zap.Error(err))
		}
	})
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Info("server running", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, cors(r)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
