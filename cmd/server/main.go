// Command server runs the lifeline API: donor and hospital accounts, donation
// requests, match ranking, the donation lifecycle, and the notification
// pipeline. With no DATABASE_URL, REDIS_URL, or KAFKA_BROKERS set it comes up
// fully in memory, which is the development and unit-test mode.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"lifeline/contracts/events"
	"lifeline/internal/auth"
	authhandler "lifeline/internal/auth/handler"
	"lifeline/internal/auth/lockout"
	"lifeline/internal/auth/revocation"
	"lifeline/internal/donation"
	donationhandler "lifeline/internal/donation/handler"
	"lifeline/internal/eligibility"
	httpapi "lifeline/internal/http"
	"lifeline/internal/matching"
	matchinghandler "lifeline/internal/matching/handler"
	matchingmetrics "lifeline/internal/matching/metrics"
	"lifeline/internal/notification"
	notificationhandler "lifeline/internal/notification/handler"
	notificationmetrics "lifeline/internal/notification/metrics"
	"lifeline/internal/platform/config"
	"lifeline/internal/platform/httpserver"
	"lifeline/internal/platform/kafka"
	"lifeline/internal/platform/kafka/consumer"
	"lifeline/internal/platform/logger"
	"lifeline/internal/platform/metrics"
	platformredis "lifeline/internal/platform/redis"
	"lifeline/internal/request"
	requesthandler "lifeline/internal/request/handler"
	"lifeline/internal/user"
	userhandler "lifeline/internal/user/handler"
	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/tx"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Postgres when configured, in-memory otherwise.
	var (
		userStore     user.Store
		requestStore  request.Store
		donationStore donation.Store
		inbox         notification.InboxStore
		outbox        notification.OutboxStore
		lockoutStore  lockout.Store
		runner        donation.TxRunner
	)
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		if err := db.PingContext(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Error("failed to open pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		userStore = user.NewPostgres(db)
		requestStore = request.NewPostgres(db)
		donationStore = donation.NewPostgres(db)
		inbox = notification.NewPostgresInbox(pool)
		outbox = notification.NewPostgresOutbox(pool)
		lockoutStore = lockout.NewPostgresStore(db)
		runner = tx.NewRunner(db)
		log.Info("storage configured", "mode", "postgres")
	} else {
		userStore = user.NewInMemory()
		requestStore = request.NewInMemory()
		donationStore = donation.NewInMemory()
		inbox = notification.NewInMemoryInbox()
		outbox = notification.NewInMemoryOutbox()
		lockoutStore = lockout.NewInMemoryStore()
		runner = tx.NewMemoryRunner()
		log.Info("storage configured", "mode", "memory")
	}

	// Token revocation list. Redis when configured, in-memory otherwise.
	var revocations revocation.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedis(redisClient.Client)
		log.Info("token revocation configured", "mode", "redis")
	} else {
		revocations = revocation.NewInMemory()
		log.Info("token revocation configured", "mode", "memory")
	}

	// Domain services.
	evaluator := eligibility.New(eligibility.Config{CooldownDays: cfg.Matching.CooldownDays})
	users := user.NewService(userStore, user.WithLogger(log))

	notifMetrics := notificationmetrics.New()
	publisher := notification.NewPublisher(outbox,
		notification.WithPublisherLogger(log),
		notification.WithPublisherMetrics(notifMetrics),
		notification.WithAsyncBuffer(256),
	)
	defer publisher.Close()

	matcher := matching.NewService(userStore, requestStore, donationStore, evaluator,
		matching.Config{
			ExactMatchBonus:   cfg.Matching.ExactMatchBonus,
			ProximityRadiusKm: cfg.Matching.ProximityRadiusKm,
			UrgencyBonus: map[id.Urgency]float64{
				id.UrgencyLow:      cfg.Matching.UrgencyBonusLow,
				id.UrgencyMedium:   cfg.Matching.UrgencyBonusMedium,
				id.UrgencyHigh:     cfg.Matching.UrgencyBonusHigh,
				id.UrgencyCritical: cfg.Matching.UrgencyBonusCrit,
			},
		},
		matching.WithLogger(log),
		matching.WithMetrics(matchingmetrics.New()),
	)

	requests := request.NewService(requestStore, matcher, users, publisher,
		request.WithLogger(log),
		request.WithBroadcastFanOut(cfg.Matching.BroadcastFanOut),
	)
	donations := donation.NewService(donationStore, users, requests, evaluator, runner, publisher,
		donation.WithLogger(log))
	requests.SetDonationCanceller(donations)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	lockouts := lockout.NewService(lockoutStore, lockout.Config{
		MaxFailures:  cfg.Lockout.MaxFailures,
		Window:       cfg.Lockout.Window,
		LockDuration: cfg.Lockout.LockDuration,
	}, lockout.WithLogger(log))
	authService := auth.NewService(users, tokens, revocations, lockouts,
		auth.WithLogger(log), auth.WithNotifier(publisher))
	if err := authService.BootstrapAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}

	notifications := notification.NewService(inbox, notification.WithServiceLogger(log))

	router := httpapi.NewRouter(httpapi.Dependencies{
		Logger:         log,
		Metrics:        metrics.New(),
		TokenValidator: auth.NewMiddlewareAdapter(tokens),
		Revocations:    revocations,
		Auth:           authhandler.New(authService, log),
		Users:          userhandler.New(users, log),
		Requests:       requesthandler.New(requests, log),
		Donations:      donationhandler.New(donations, log),
		Matches:        matchinghandler.New(matcher, log),
		Notifications:  notificationhandler.New(notifications, log),
	})

	srv := httpserver.New(cfg.Server, router)
	group, groupCtx := errgroup.WithContext(ctx)

	log.Info("starting lifeline", "addr", cfg.Server.Addr)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Kafka pipeline. Without brokers the outbox accumulates and nothing
	// consumes; matching and the lifecycle still work.
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("failed to build kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		relay := notification.NewRelay(outbox, producer,
			notification.WithRelayLogger(log),
			notification.WithRelayMetrics(notifMetrics),
		)
		group.Go(func() error { return relay.Run(groupCtx) })

		writer := notification.NewInboxWriter(inbox, log)
		cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
			[]string{events.Topic}, writer, log)
		if err != nil {
			log.Error("failed to build kafka consumer", "error", err)
			os.Exit(1)
		}
		group.Go(func() error { return cons.Run(groupCtx) })
		log.Info("notification pipeline started", "brokers", cfg.Kafka.Brokers)
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := group.Wait(); err != nil {
		log.Error("background worker failed", "error", err)
	}
}
