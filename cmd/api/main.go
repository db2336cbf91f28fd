package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/qwfeng/ai-trip-planner-backend/internal/ai"
	"github.com/qwfeng/ai-trip-planner-backend/internal/config"
	"github.com/qwfeng/ai-trip-planner-backend/internal/logging"
	"github.com/qwfeng/ai-trip-planner-backend/internal/repository/postgres"
	"github.com/qwfeng/ai-trip-planner-backend/internal/service"
	transport "github.com/qwfeng/ai-trip-planner-backend/internal/transport/http"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	sessionTTL, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil {
		log.Printf("invalid SESSION_TTL %q, using 24h", cfg.SessionTTL)
		sessionTTL = 24 * time.Hour
	}

	tripRepo := postgres.NewTripRepo(db)
	expenseRepo := postgres.NewExpenseRepo(db)
	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	completions := ai.NewClient(cfg.DashScopeBaseURL, cfg.DashScopeAPIKey, cfg.DashScopeModel)

	planSvc := service.NewPlanService(completions)
	tripSvc := service.NewTripService(tripRepo, cfg.TripListLimit)
	expenseSvc := service.NewExpenseService(expenseRepo, tripRepo)
	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret, sessionTTL, cfg.GoogleAudience)

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterAuth(e, authSvc, cfg.LoginURL)
	transport.RegisterPlans(e, planSvc)
	transport.RegisterTrips(e, authSvc, tripSvc, expenseSvc)
	transport.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
