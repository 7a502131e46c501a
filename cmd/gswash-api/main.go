// README: Entry point; loads config, wires services, starts HTTP server and background workers.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gswash/internal/audit"
	"gswash/internal/config"
	"gswash/internal/geocode"
	httptransport "gswash/internal/http"
	"gswash/internal/infra"
	"gswash/internal/logger"
	"gswash/internal/modules/delegate"
	"gswash/internal/modules/loyalty"
	"gswash/internal/modules/order"
	"gswash/internal/modules/pricing"
	"gswash/internal/modules/watch"
	"gswash/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("GSWASH_FIREBASE_PROJECT_ID is required")
	}
	fbApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatal("firebase init", zap.Error(err))
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, fbApp)
	if err != nil {
		log.Fatal("firebase verifier", zap.Error(err))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	loyaltyStore := loyalty.NewStore(redisClient, cfg.Loyalty.DefaultRate, log)
	orderStore := order.NewStore(dbPool)
	watchSvc := watch.NewService(orderStore, log)

	pubs := []order.Publisher{watchSvc}

	var notifySvc *notify.Service
	if msgClient, err := infra.NewFirebaseMessaging(ctx, fbApp); err != nil {
		log.Warn("fcm disabled", zap.Error(err))
	} else {
		notifySvc = notify.NewService(msgClient, redisClient, log)
		pubs = append(pubs, notifySvc)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		auditPub, err := audit.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Fatal("kafka init", zap.Error(err))
		}
		defer func() { _ = auditPub.Close() }()
		pubs = append(pubs, auditPub)
	}

	orderSvc := order.NewService(orderStore, loyaltyStore, log, pubs...)
	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))
	delegateSvc := delegate.NewService(delegate.NewStore(redisClient))

	var geocodeSvc *geocode.Service
	if cfg.Maps.APIKey != "" {
		geocodeSvc, err = geocode.NewService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal("maps init", zap.Error(err))
		}
	}

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Order:    orderSvc,
		Pricing:  pricingSvc,
		Watch:    watchSvc,
		Delegate: delegateSvc,
		Loyalty:  loyaltyStore,
		Notify:   notifySvc,
		Geocode:  geocodeSvc,
		Verifier: verifier,
		Log:      log,
	})

	poller := watch.NewPoller(orderStore, watchSvc, cfg.Watch.PollInterval, log)
	go poller.Run(ctx)

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
}
