package bootstrap

import (
	"context"
	"log"

	"library-ai-be/internal/config"
	"library-ai-be/internal/controller"
	"library-ai-be/internal/handler"
	"library-ai-be/internal/pkg/logger"
	"library-ai-be/internal/pkg/metrics"
	"library-ai-be/internal/repository/cache"
	"library-ai-be/internal/repository/unitofwork"
	"library-ai-be/internal/service"
	"library-ai-be/pkg/assistant/enrich"
	"library-ai-be/pkg/assistant/intent"
	"library-ai-be/pkg/assistant/orchestrator"
	"library-ai-be/pkg/events"
	"library-ai-be/pkg/llm/factory"

	pktNats "library-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const turnAuditDurable = "library-ai-turn-audit"

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	SessionController controller.ISessionController
	ChatSocketHandler *handler.ChatSocketHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.ChatMetrics
	Logger       logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	chatMetrics := metrics.NewChatMetrics()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Catalog cache stays in-process", err)
		_ = rdb.Close()
		rdb = nil
	}

	// 4. Model backend
	provider, err := factory.NewLLMProvider(cfg.Ai.Provider, factory.Options{
		ForwardURL:    cfg.Ai.ForwardURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OllamaModel:   cfg.Ai.OllamaModel,
		StreamTimeout: cfg.Ai.StreamTimeout,
		RetryBackoff:  cfg.Ai.RetryBackoff,
	}, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.Provider)

	// 5. Services
	sessionService := service.NewChatSessionService(uowFactory)
	identityService := service.NewIdentityService(uowFactory, cfg.Auth.JwtSecret)
	catalogService := service.NewCatalogService(
		uowFactory,
		cache.NewCatalogCache(rdb, cfg.Enrich.CacheTTL),
		cfg.Enrich.LookupLimit,
		chatMetrics,
		sysLogger,
	)

	var bus service.EventPublisher
	if natsPub != nil {
		bus = natsPub
	}
	eventPublisher := service.NewChatEventPublisher(cfg.Chat.TurnTopic, pubSub, bus, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Chat.TurnTopic, uowFactory, sysLogger)

	orch := orchestrator.New(orchestrator.Deps{
		Identity:   identityService,
		Store:      sessionService,
		Classifier: intent.NewClassifier(provider, cfg.Ai.ClassifyTimeout, sysLogger),
		Generator:  provider,
		Enricher: enrich.NewEnricher(catalogService, enrich.Config{
			Concurrency: cfg.Enrich.Concurrency,
			Interval:    cfg.Enrich.LookupInterval,
		}, sysLogger),
		Observer: eventPublisher,
		Recorder: chatMetrics,
		Logger:   sysLogger,
	}, orchestrator.Config{
		HistoryLimit: cfg.Chat.HistoryLimit,
		MaxLength:    cfg.Ai.MaxLength,
		Ceiling:      cfg.Chat.RequestCeiling,
	})

	wsLogger := logger.NewIsolatedLogger("logs/chat_ws.log")

	// 6. Controllers
	return &Container{
		ChatController:    controller.NewChatController(orch, cfg.Chat.Heartbeat, sysLogger),
		SessionController: controller.NewSessionController(sessionService),
		ChatSocketHandler: handler.NewChatSocketHandler(orch, cfg.Auth.JwtSecret, wsLogger),

		ConsumerService: consumerService,

		Orchestrator: orch,
		Metrics:      chatMetrics,
		Logger:       sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
	}
}

// StartBackground starts the turn consumer and, when NATS is up, the audit
// subscription on completed turns.
func (c *Container) StartBackground(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	if c.natsSub == nil {
		return nil
	}
	return c.natsSub.Subscribe(ctx, events.TypeChatTurnCompleted, turnAuditDurable, func(ctx context.Context, evt events.Event) error {
		c.Logger.Info("AUDIT", "Chat turn completed", evt.Payload())
		return nil
	})
}

// Close releases connections. Call after the orchestrator has drained.
func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.pubSub != nil {
		_ = c.pubSub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
