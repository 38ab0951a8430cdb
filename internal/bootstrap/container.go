package bootstrap

import (
	"context"
	"log"

	"outfit-stylist-be/internal/config"
	"outfit-stylist-be/internal/controller"
	"outfit-stylist-be/internal/pkg/logger"
	"outfit-stylist-be/internal/repository/localcache"
	"outfit-stylist-be/internal/repository/memory"
	"outfit-stylist-be/internal/repository/unitofwork"
	"outfit-stylist-be/internal/service"
	"outfit-stylist-be/pkg/events"
	"outfit-stylist-be/pkg/gateway"
	pktNats "outfit-stylist-be/pkg/nats"
	"outfit-stylist-be/pkg/stylist"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tierServedTopic = "tier_served"

type Container struct {
	// Controllers
	OutfitController controller.IOutfitController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

// NewContainer wires the application. db may be nil; the direct-store tier
// then always falls through.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	ctx := context.Background()

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	tierLogger := logger.NewIsolatedLogger(cfg.App.TierLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database; direct-store tier disabled")
	}

	c := &Container{}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	statsRepo := memory.NewTierStatsRepository()
	publisherService := service.NewPublisherService(tierServedTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, tierServedTopic, statsRepo, sysLogger)

	metrics := service.NewTierMetrics(prometheus.DefaultRegisterer)
	recorder := service.NewTierRecorder(tierLogger, metrics, publisherService)

	// 3. Gateway
	functions := gateway.NewHTTPFunctionClient(cfg.Gateway.FunctionsURL, cfg.Gateway.FunctionsKey)
	if cfg.Gateway.FunctionsURL == "" {
		log.Printf("[WARN] GATEWAY_FUNCTIONS_URL not set; remote function tiers will fall through")
	}

	var analyzer gateway.Analyzer
	a, err := gateway.NewAnalyzer(ctx, cfg.Gateway.AnalyzerProvider, functions, cfg.Ai.GeminiAPIKey, cfg.Ai.GeminiModel)
	if err != nil {
		log.Printf("[WARN] Analyzer unavailable, synthetic analysis only: %v", err)
	} else {
		analyzer = a
		log.Printf("[INFO] Using Analyzer Provider: %s", cfg.Gateway.AnalyzerProvider)
	}

	bucket := gateway.NewDiskBucket(cfg.App.UploadsDir, cfg.App.BaseURL+"/uploads")

	// 4. Local Durable Cache
	store := newLocalStore(ctx, cfg)
	c.closers = append(c.closers, func() { store.Close() })
	outfitCache := localcache.NewOutfitCache(store, cfg.LocalCache.Key)

	// 5. Domain events
	var eventPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 6. Services
	outfitService := service.NewOutfitService(
		uowFactory,
		functions,
		analyzer,
		bucket,
		outfitCache,
		stylist.NewSynthesizer(stylist.DefaultCatalog(), nil),
		statsRepo,
		eventPublisher,
		recorder,
		sysLogger,
		cfg.Gateway.TierTimeout,
	)

	c.closers = append(c.closers, func() {
		sysLogger.Sync()
		tierLogger.Sync()
	})

	// 7. Controllers
	c.OutfitController = controller.NewOutfitController(outfitService, cfg.App.MaxUploadBytes)

	return c
}

// newLocalStore picks the configured backend. Redis falls back to SQLite
// when it cannot be reached, since the local tier must always work.
func newLocalStore(ctx context.Context, cfg *config.Config) localcache.Store {
	if cfg.LocalCache.Driver == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to SQLite local cache", err)
			rdb.Close()
		} else {
			log.Printf("[INFO] Using Local Cache: REDIS")
			return localcache.NewRedisStore(rdb, "outfit-stylist")
		}
	}

	store, err := localcache.NewSQLiteStore(cfg.LocalCache.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open local cache at %s: %v", cfg.LocalCache.SQLitePath, err)
	}
	log.Printf("[INFO] Using Local Cache: SQLITE (%s)", cfg.LocalCache.SQLitePath)
	return store
}

// Close releases resources in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
