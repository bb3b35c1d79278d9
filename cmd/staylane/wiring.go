package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"staylane/internal/app/commands"
	availabilityapp "staylane/internal/app/handlers/availability"
	bookingapp "staylane/internal/app/handlers/booking"
	meapp "staylane/internal/app/handlers/me"
	paymentsapp "staylane/internal/app/handlers/payments"
	propertiesapp "staylane/internal/app/handlers/properties"
	reviewsapp "staylane/internal/app/handlers/reviews"
	"staylane/internal/app/middleware"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/policies"
	"staylane/internal/app/queries"
	authsvc "staylane/internal/app/services/auth"
	"staylane/internal/app/uow"
	domainauth "staylane/internal/domain/auth"
	"staylane/internal/domain/pricing"
	domainuser "staylane/internal/domain/user"
	"staylane/internal/infra/broker/kafka"
	redisstore "staylane/internal/infra/cache/redis"
	"staylane/internal/infra/config"
	mongostore "staylane/internal/infra/db/mongo"
	ginserver "staylane/internal/infra/http/gin"
	infraoutbox "staylane/internal/infra/outbox"
	"staylane/internal/infra/payments/fake"
	"staylane/internal/infra/payments/stripe"
	"staylane/internal/infra/security"
	"staylane/internal/infra/storage/memory"
	"staylane/internal/infra/storage/s3"
)

// outboxStore is both ends of the outbox: handlers append, the worker drains.
type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Source
}

type application struct {
	handlers       ginserver.Handlers
	uow            uow.UoWFactory
	worker         *infraoutbox.Worker
	consumer       *kafka.Consumer
	consumerTopics []string
	checks         []func(context.Context) error
	closers        []func(context.Context) error
}

func (a *application) ready(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i](ctx)
	}
}

// buildApplication closes whatever it already opened when a later step fails.
func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	var (
		factory     uow.UoWFactory
		box         outboxStore
		users       domainuser.Repository
		idempotency middleware.IdempotencyStore
		sessions    domainauth.SessionStore
		calendar    policies.CalendarCache
		journal     policies.ReconciliationJournal
		payments    policies.PaymentsPort
	)

	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.checks = append(app.checks, client.Ping)
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		store, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idStore, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		factory = mongostore.Factory{DB: client.DB}
		box = store
		users = mongostore.NewUserRepository(client.DB)
		idempotency = idStore
	default:
		factory = memory.Factory{Store: memory.NewStore()}
		box = memory.NewOutbox()
		users = memory.NewUserRepository()
		idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	if cfg.RedisEnabled() {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		app.checks = append(app.checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		sessions = redisstore.NewSessionStore(rdb)
		calendar = redisstore.NewCalendarCache(rdb, cfg.CalendarCacheTTL)
		// Redis takes over idempotency from the storage backend.
		idempotency = redisstore.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
	} else {
		sessions = memory.NewSessionStore()
		calendar = memory.NewCalendarCache(cfg.CalendarCacheTTL)
	}

	if cfg.S3Enabled() {
		j, err := s3.NewJournal(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3ReconciliationBucket, logger)
		if err != nil {
			return nil, fmt.Errorf("s3 journal: %w", err)
		}
		app.checks = append(app.checks, j.Ping)
		journal = j
	} else {
		journal = memory.NewReconciliationJournal()
	}

	if cfg.StripeEnabled() {
		client, err := stripe.New(cfg.StripeSecretKey, logger)
		if err != nil {
			return nil, fmt.Errorf("stripe: %w", err)
		}
		payments = client
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using the fake payment provider")
		payments = fake.NewProvider(true)
	}

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger}
	if cfg.KafkaEnabled() {
		kcfg := kafka.NewConfig(cfg.KafkaClientID)
		p, err := kafka.NewProducer(cfg.KafkaBrokers, kcfg)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return p.Close() })
		producer = p

		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaClientID+"-calendar-"+uuid.NewString()[:8], kafka.NewConfig(cfg.KafkaClientID), kafka.CalendarInvalidator{Cache: calendar}, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
		app.consumer = consumer
		app.consumerTopics = []string{cfg.KafkaTopicPrefix + "booking.events.v1"}
	}

	app.uow = factory
	app.worker = &infraoutbox.Worker{
		Source:      box,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		SourceURI:   "staylane/api",
		ID:          "outbox-" + uuid.NewString()[:8],
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	policy := pricing.Policy{
		Currency:    cfg.Currency,
		CleaningFee: cfg.CleaningFeeMinor,
		ServiceFee:  cfg.ServiceFeeMinor,
		TaxRateBPS:  cfg.TaxRateBPS,
	}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory,
		Policy:     policy,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(), &bookingapp.DeleteBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    encoder,
		Calendar:   calendar,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, paymentsapp.CreatePaymentSessionCommand{}.Key(), &paymentsapp.CreatePaymentSessionHandler{
		UoWFactory:    factory,
		Payments:      payments,
		Timeout:       cfg.PaymentTimeout,
		DefaultOrigin: cfg.PublicAPIURL,
		ConfirmPath:   paymentsapp.DefaultConfirmPath,
		Logger:        logger,
	})
	commands.RegisterHandler(commandBus, paymentsapp.ConfirmPaymentCommand{}.Key(), &paymentsapp.ConfirmPaymentHandler{
		UoWFactory: factory,
		Payments:   payments,
		Journal:    journal,
		Calendar:   calendar,
		Outbox:     box,
		Encoder:    encoder,
		Timeout:    cfg.PaymentTimeout,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, propertiesapp.CreatePropertyCommand{}.Key(), &propertiesapp.CreatePropertyHandler{
		Currency: cfg.Currency,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, propertiesapp.RepricePropertyCommand{}.Key(), &propertiesapp.RepricePropertyHandler{
		Currency: cfg.Currency,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		Outbox:  box,
		Encoder: encoder,
		Logger:  logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory: factory,
		Cache:      calendar,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, availabilityapp.QuoteStayQuery{}.Key(), &availabilityapp.QuoteStayHandler{
		UoWFactory: factory,
		Policy:     policy,
	})
	queries.RegisterHandler(queryBus, propertiesapp.GetPropertyQuery{}.Key(), &propertiesapp.GetPropertyHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, propertiesapp.ListPropertiesQuery{}.Key(), &propertiesapp.ListPropertiesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListPropertyReviewsQuery{}.Key(), &reviewsapp.ListPropertyReviewsHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, meapp.ListProfileBookingsQuery{}.Key(), &meapp.ListProfileBookingsHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListHostReservationsQuery{}.Key(), &bookingapp.ListHostReservationsHandler{
		UoWFactory: factory,
		Currency:   cfg.Currency,
		Logger:     logger,
	})

	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.StructValidator{}),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Idempotency(idempotency, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box, logger),
	)
	queryPipeline := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(middleware.StructValidator{}),
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
	)

	auth := &authsvc.Service{
		Users:     users,
		Sessions:  sessions,
		Passwords: security.BcryptHasher{},
		Tokens:    security.RandomTokenGenerator{},
		Logger:    logger,
	}

	app.handlers = ginserver.Handlers{
		Auth:         ginserver.AuthHandler{Service: auth, Logger: logger},
		Property:     ginserver.PropertyHandler{Queries: queryPipeline, Logger: logger},
		HostProperty: ginserver.HostPropertyHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: queryPipeline, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: commandPipeline, Logger: logger},
		Payment: ginserver.PaymentHandler{
			Commands:   commandPipeline,
			PublicURL:  cfg.PublicAPIURL,
			SuccessURL: cfg.PaymentSuccessURL(),
			FailureURL: cfg.PaymentFailureURL(),
			Logger:     logger,
		},
		Reviews:        ginserver.ReviewsHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
		Me:             ginserver.MeHandler{Queries: queryPipeline, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: auth, Logger: logger}.Handle,
	}
	return app, nil
}
