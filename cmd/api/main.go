package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fieldhq/lead-dispatch/internal/config"
	"github.com/fieldhq/lead-dispatch/internal/infra/database"
	"github.com/fieldhq/lead-dispatch/internal/infra/http/handlers"
	"github.com/fieldhq/lead-dispatch/internal/infra/http/middleware"
	"github.com/fieldhq/lead-dispatch/internal/infra/integration/nominatim"
	"github.com/fieldhq/lead-dispatch/internal/infra/integration/whatsapp"
	"github.com/fieldhq/lead-dispatch/internal/infra/mail"
	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
	"github.com/fieldhq/lead-dispatch/internal/infra/worker"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// RabbitMQ mirrors dispatch events for downstream consumers. The engine
	// runs without it.
	var rabbitConn *amqp.Connection
	var publisher queue.DispatchEventPublisher
	if cfg.RabbitHost != "" {
		rabbit, err := queue.NewRabbitMQ(cfg.RabbitUser, cfg.RabbitPass, cfg.RabbitHost, cfg.RabbitPort)
		if err != nil {
			log.Printf("rabbitmq unavailable, dispatch events disabled: %v", err)
		} else {
			defer rabbit.Conn.Close()
			defer rabbit.Ch.Close()
			rabbitConn = rabbit.Conn
			publisher = queue.NewPublisher(rabbit.Conn, rabbit.Ch)
		}
	}

	// 1. Repositories
	workerRepo := database.NewWorkerRepository(db)
	leadRepo := database.NewLeadRepository(db)
	assignmentRepo := database.NewAssignmentRepository(db)

	// 2. Integrations and adapters
	geoClient := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.NominatimTimeout).
		WithThrottle(cfg.NominatimMinInterval, cfg.NominatimCacheTTL)

	waClient := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneID, 15*time.Second)
	mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.SenderName)

	adapters := []queue.TransportAdapter{
		mail.NewWhatsAppSender(waClient, cfg.SenderName),
		mailSender,
	}

	// 3. Outreach queue
	outreachQueue := queue.NewOutreachQueue(cfg.QueueCapacity)

	// 4. UseCases
	matchUC := usecase.NewMatchLeadUseCase(workerRepo)
	dispatchUC := usecase.NewDispatchLeadUseCase(leadRepo, workerRepo, assignmentRepo, matchUC, outreachQueue, publisher)
	collectUC := usecase.NewCollectLeadsUseCase(leadRepo, geoClient)
	importUC := usecase.NewImportWorkersUseCase(workerRepo)
	outreachUC := usecase.NewSendOutreachUseCase(assignmentRepo, leadRepo, workerRepo, outreachQueue)

	// 5. Background workers
	consumer := queue.NewConsumer(outreachQueue, adapters, assignmentRepo, dispatchUC, queue.ConsumerConfig{
		Workers:     cfg.OutreachWorkers,
		MaxAttempts: cfg.OutreachMaxAttempts,
		BaseBackoff: cfg.OutreachBackoff,
		SendTimeout: cfg.OutreachSendTimeout,
		FailLeads:   cfg.OutreachFailLeads,
		CloseOnSent: cfg.OutreachCloseOnSent,
		OnOutcome:   middleware.RecordOutreach,
	})
	consumer.Start(ctx)

	sweeper := worker.NewStaleClaimWorker(leadRepo, cfg.StaleClaimWindow, cfg.StaleSweepInterval)
	go sweeper.Start(ctx)

	go pollQueueDepth(ctx, outreachQueue)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(collectUC, dispatchUC, leadRepo)
	workerHandler := handlers.NewWorkerHandler(importUC, workerRepo)
	dispatchHandler := handlers.NewDispatchHandler(dispatchUC, outreachUC)
	statsHandler := handlers.NewStatsHandler(leadRepo, assignmentRepo, workerRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn, outreachQueue)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/leads/collect", leadHandler.HandleCollect)
	r.Get("/leads", leadHandler.HandleList)
	r.Get("/leads/export", leadHandler.HandleExport)
	r.Post("/leads/{leadID}/close", leadHandler.HandleClose)

	r.Post("/workers/import", workerHandler.HandleImport)
	r.Post("/workers", workerHandler.HandleAdd)
	r.Get("/workers", workerHandler.HandleList)
	r.Patch("/workers/{workerID}/active", workerHandler.HandleSetActive)

	r.Post("/dispatch/{leadID}", dispatchHandler.HandleDispatchOne)
	r.Post("/match", dispatchHandler.HandleMatchService)
	r.Post("/assignments/{assignmentID}/outreach", dispatchHandler.HandleSendOutreach)

	r.Get("/stats", statsHandler.HandleStats)

	server := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("lead dispatch API listening on %s", cfg.HTTPListenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func pollQueueDepth(ctx context.Context, q *queue.OutreachQueue) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetQueueDepth(q.Depth())
		}
	}
}
