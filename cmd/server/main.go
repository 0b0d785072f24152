package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"kelatic/internal/api"
	"kelatic/internal/auth"
	"kelatic/internal/repository"
	"kelatic/internal/service"
)

func main() {
	godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	stripeWebhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")

	salonTZ := os.Getenv("SALON_TIMEZONE")
	if salonTZ == "" {
		salonTZ = "America/New_York"
	}
	loc, err := time.LoadLocation(salonTZ)
	if err != nil {
		log.Fatalf("Invalid SALON_TIMEZONE %q: %v", salonTZ, err)
	}

	bookingRepo := repository.NewBookingRepository(database, loc)
	adminRepo := repository.NewAdminRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	jobRepo := repository.NewJobRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)

	stripeService := service.NewStripeService()
	senderService := service.NewSenderService(bookingRepo, loc)
	bookingService := service.NewBookingService(bookingRepo, stripeService, senderService, loc)
	adminService := service.NewAdminService(adminRepo, paymentRepo, bookingService, stripeService, loc)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, senderService)
	adminAuthService := service.NewAdminAuthService(adminAuthRepo)
	jobService := service.NewJobService(jobRepo, bookingRepo, senderService)

	bookingHandler := api.NewBookingHandler(bookingService)
	adminHandler := api.NewAdminHandler(adminService, bookingService)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthService)
	stripeHandler := api.NewStripeWebhookHandler(stripeWebhookSecret, paymentService)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/availability", bookingHandler.GetAvailability).Methods("GET")
	r.HandleFunc("/api/bookings", bookingHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/appointments/{id}", bookingHandler.GetAppointment).Methods("GET")
	r.HandleFunc("/api/appointments/{id}/reschedule", bookingHandler.RescheduleAppointment).Methods("POST")
	r.HandleFunc("/api/appointments/{id}/cancel", bookingHandler.CancelAppointment).Methods("POST")
	r.HandleFunc("/api/webhooks/stripe", stripeHandler.HandleWebhook).Methods("POST")
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/appointments", adminHandler.ListAppointments).Methods("GET")
	admin.HandleFunc("/appointments/{id}", adminHandler.UpdateAppointment).Methods("PATCH")
	admin.HandleFunc("/appointments/{id}/refund", adminHandler.RefundDeposit).Methods("POST")
	admin.HandleFunc("/services", adminHandler.ListServices).Methods("GET")
	admin.HandleFunc("/services", adminHandler.CreateService).Methods("POST")
	admin.HandleFunc("/services/{id}", adminHandler.UpdateService).Methods("PUT")
	admin.HandleFunc("/services/{id}", adminHandler.DeactivateService).Methods("DELETE")
	admin.HandleFunc("/stylists", adminHandler.ListStylists).Methods("GET")
	admin.HandleFunc("/stylists/{id}/schedule", adminHandler.GetSchedule).Methods("GET")
	admin.HandleFunc("/stylists/{id}/schedule", adminHandler.ReplaceSchedule).Methods("PUT")
	admin.HandleFunc("/stylists/{id}/time-off", adminHandler.ListTimeOff).Methods("GET")
	admin.HandleFunc("/stylists/{id}/time-off", adminHandler.CreateTimeOff).Methods("POST")
	admin.HandleFunc("/stylists/{id}/time-off/{timeOffId}", adminHandler.DeleteTimeOff).Methods("DELETE")
	admin.HandleFunc("/clients", adminHandler.ListClients).Methods("GET")
	admin.HandleFunc("/register", adminAuthHandler.CreateAdmin).Methods("POST")

	c := cron.New()
	c.AddFunc("*/5 * * * *", func() {
		if err := jobService.SendUpcomingReminders(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("0 * * * *", func() {
		if err := jobService.CompleteFinishedAppointments(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("*/10 * * * *", func() {
		if err := jobService.ExpireUnpaidDeposits(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	allowedOrigins := strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",")
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "" {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler(r)))
}
