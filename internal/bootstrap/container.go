package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/controller"
	"ppm-intake-be/internal/handler"
	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/internal/repository/filestore"
	"ppm-intake-be/internal/repository/implementation"
	"ppm-intake-be/internal/repository/memory"
	"ppm-intake-be/internal/repository/redisstore"
	"ppm-intake-be/internal/service"
	"ppm-intake-be/internal/websocket"
	"ppm-intake-be/pkg/embedding"
	"ppm-intake-be/pkg/events"
	"ppm-intake-be/pkg/intake/cache"
	"ppm-intake-be/pkg/intake/extract"
	"ppm-intake-be/pkg/intake/record"
	"ppm-intake-be/pkg/intake/respond"
	"ppm-intake-be/pkg/intake/session"
	"ppm-intake-be/pkg/llm/factory"

	pktNats "ppm-intake-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	IntakeController controller.IIntakeController
	AdminController  controller.IAdminController
	ChatHandler      *handler.ChatHandler

	// Core
	Manager       *session.Manager
	IntakeService service.IIntakeService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

// NewManagerFor builds the session manager and its ports without any transport
func NewManagerFor(db *gorm.DB, rdb *redis.Client, notifier record.Notifier, cfg *config.Config, sysLogger logger.ILogger) (*session.Manager, *memory.SessionRepository, error) {
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	records, err := newRecordStore(db, rdb, cfg)
	if err != nil {
		return nil, nil, err
	}

	sessionRepo := memory.NewSessionRepository(cfg.Intake.SessionIdleTTL)
	exchangeRepo := implementation.NewExchangeRepository(db, embeddingProvider)
	semanticCache := cache.NewSemanticCache(exchangeRepo, cache.Config{
		MaxDistance: cfg.Intake.CacheMaxDistance,
		Timeout:     cfg.Intake.CacheTimeout,
	}, sysLogger)
	// idle sessions drop their lookup counters with them
	sessionRepo.OnEvicted(semanticCache.Forget)

	manager := session.NewManager(session.Options{
		Store:     sessionRepo,
		Extractor: extract.NewLLMExtractor(llmProvider, cfg.Ai.ExtractTemperature),
		Responder: respond.NewLLMResponder(llmProvider, respond.Config{
			Temperature:  cfg.Ai.ReplyTemperature,
			TopP:         cfg.Ai.ReplyTopP,
			HistoryTurns: cfg.Ai.HistoryTurns,
		}, sysLogger),
		Cache:    semanticCache,
		Records:  records,
		Notifier: notifier,
		Logger:   sysLogger,
		Timeouts: session.Timeouts{
			Extract: cfg.Ai.ExtractTimeout,
			Reply:   cfg.Ai.ReplyTimeout,
			Save:    cfg.Intake.SaveTimeout,
		},
		HistoryCapacity: cfg.Intake.TranscriptTurns,
	})
	return manager, sessionRepo, nil
}

func newRecordStore(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (record.Store, error) {
	switch cfg.Intake.RecordStore {
	case "postgres":
		log.Printf("[INFO] Using Record Store: POSTGRES")
		return implementation.NewRecordRepository(db), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("record store redis requires REDIS_URL")
		}
		log.Printf("[INFO] Using Record Store: REDIS")
		return redisstore.NewRecordStore(rdb), nil
	case "file", "":
		log.Printf("[INFO] Using Record Store: FILE (%s)", cfg.Intake.RecordDir)
		return filestore.NewRecordStore(cfg.Intake.RecordDir)
	default:
		return nil, fmt.Errorf("unsupported record store: %s", cfg.Intake.RecordStore)
	}
}

// NewRedisClient returns nil when url is empty or the server is unreachable
func NewRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Infrastructure
	var relay events.Publisher
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
			relay = pub
		}
	}

	rdb := NewRedisClient(cfg.App.RedisURL)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	publisherService := service.NewPublisherService(pubSub, cfg.App.CompletionTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.CompletionTopic,
		relay,
		wsHub, // Hub implements SessionDelivery
		sysLogger,
	)

	manager, sessionRepo, err := NewManagerFor(db, rdb, publisherService, cfg, sysLogger)
	if err != nil {
		_ = pubSub.Close()
		return nil, err
	}

	intakeService := service.NewIntakeService(manager, sessionRepo)

	return &Container{
		IntakeController: controller.NewIntakeController(intakeService),
		AdminController:  controller.NewAdminController(intakeService, cfg.Auth.JWTSecret),
		ChatHandler:      handler.NewChatHandler(intakeService, wsHub, wsLogger),

		Manager:       manager,
		IntakeService: intakeService,

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,

		Logger: sysLogger,

		pubSub:  pubSub,
		natsPub: natsPub,
		rdb:     rdb,
	}, nil
}

// Close releases the event bus and external connections. Sessions must be closed first.
func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
