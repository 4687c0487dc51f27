package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/salonbot/libs/config"
	"github.com/md-rashed-zaman/salonbot/libs/db"
	"github.com/md-rashed-zaman/salonbot/libs/grpcx"
	"github.com/md-rashed-zaman/salonbot/libs/httpx"
	"github.com/md-rashed-zaman/salonbot/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbot/libs/otel"
	"github.com/md-rashed-zaman/salonbot/libs/ratelimit"
	"github.com/md-rashed-zaman/salonbot/libs/runtime"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/booking"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/chat"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/conversation"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/loop"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/notify"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/outbox"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/reminders"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/reviews"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/staff"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/storage"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/telegram"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "salon-bot")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	token, err := config.RequiredString("TELEGRAM_BOT_TOKEN")
	if err != nil {
		panic(err)
	}
	adminID, err := config.RequiredInt64("ADMIN_CHAT_ID")
	if err != nil {
		panic(err)
	}
	loc, err := time.LoadLocation(config.String("SALON_TIMEZONE", "Local"))
	if err != nil {
		panic(err)
	}
	services, err := model.ParseServices(config.String("SALON_SERVICES", ""))
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.OptionsFromEnv())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("migration failed", "err", err)
		panic(err)
	}

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if publisher.Enabled() {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 30)
	var limiter ratelimit.Limiter = ratelimit.NewMemory(perMinute, time.Minute)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		limiter = ratelimit.NewRedis(rdb, perMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "salonbot:rl"))
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: ratelimit.ReadyCheck(rdb)})
	}

	api, err := telegram.Connect(token)
	if err != nil {
		logger.Error("telegram connection failed", "err", err)
		panic(err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	bot := telegram.New(api, limiter, logger, telegram.Config{PollTimeout: 30})

	events := loop.New(logger, 256)
	loopDone := make(chan struct{})
	go func() {
		events.Run(ctx)
		close(loopDone)
	}()

	dispatcher := notify.NewDispatcher(bot, repo, adminID, logger)
	scheduler := reminders.NewScheduler(repo, logger, reminders.SchedulerConfig{
		Location:              loc,
		CancelWithAppointment: config.Bool("REMINDERS_CANCEL_WITH_APPOINTMENT", true),
	})
	engine := booking.NewEngine(repo, dispatcher, scheduler, logger, booking.Config{Location: loc})
	reviewService := reviews.NewService(repo, logger)
	roster := staff.NewRoster(repo, bot, logger, staff.Config{
		Services: model.ServiceNames(services),
		Location: loc,
	})
	controller := conversation.New(conversation.Deps{
		Out:      bot,
		Engine:   engine,
		Reviews:  reviewService,
		Roster:   roster,
		Services: services,
		AdminID:  adminID,
		Logger:   logger,
	})

	worker := reminders.NewWorker(repo, dispatcher, events, logger, reminders.WorkerConfig{
		Interval: time.Duration(config.Int("REMINDER_POLL_SECONDS", 30)) * time.Second,
		Location: loc,
	})
	go worker.Run(ctx)

	go bot.Poll(ctx, func(ctx context.Context, ev chat.Event) {
		if err := events.Submit(ctx, "chat.event", func(ctx context.Context) { controller.Handle(ctx, ev) }); err != nil {
			logger.Warn("chat event not queued", "chat_id", ev.Chat(), "err", err)
		}
	})

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithTimeout(5*time.Second),
	)
	handler = otelhttp.NewHandler(handler, "salon-bot")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	grpcSrv, healthSrv := grpcx.NewHealthServer(logger)
	grpcChecks := make([]grpcx.Check, 0, len(readyChecks))
	for _, c := range readyChecks {
		grpcChecks = append(grpcChecks, grpcx.Check{Name: c.Name, Check: c.Check})
	}
	go grpcx.Watch(ctx, healthSrv, service, 10*time.Second, logger, grpcChecks...)
	go func() {
		lis, err := net.Listen("tcp", ":"+grpcPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			return
		}
		logger.Info("grpc health server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	logger.Info("salon bot started", "admin_chat_id", adminID, "timezone", loc.String(), "services", len(services))
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()
	select {
	case <-loopDone:
	case <-shutdownCtx.Done():
		logger.Warn("event loop did not drain in time")
	}
	logger.Info("salon bot stopped")
}
