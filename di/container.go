package di

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trip-viewer/api"
	"trip-viewer/api/itinerary"
	"trip-viewer/config"
	cachedao "trip-viewer/dao/redis"
	"trip-viewer/db"
	"trip-viewer/server"
	"trip-viewer/server/handlers"
	services "trip-viewer/service"
	"trip-viewer/util"
)

// ServerContainer holds the itinerary server dependencies.
type ServerContainer struct {
	Config                    *config.Config
	Logger                    *zap.Logger
	ItinerarySource           *services.ItinerarySource
	ItineraryHandler          *handlers.ItineraryHandler
	MuxRouter                 *mux.Router
	Router                    *server.Router
	RateLimiter               *server.RateLimiter
	ItineraryHttpServer       *server.ItineraryHttpServer
	ItineraryFileWatcher      *services.ItineraryFileWatcher
	ItineraryRefresherService *services.ItineraryRefresherService
}

// NewServerContainer initializes and wires up the server. The itinerary is
// loaded once here; a server without a valid itinerary does not start.
func NewServerContainer(cfg *config.Config, logger *zap.Logger) (*ServerContainer, error) {
	logger.Info("initializing server container", zap.String("env", cfg.Env))

	formatter := util.NewDateFormatter(cfg.Locale)
	source := services.NewItinerarySource(cfg.ItineraryFile, cfg.Version, formatter, logger)
	if _, err := source.Reload(); err != nil {
		return nil, fmt.Errorf("initial itinerary load: %w", err)
	}

	fileWatcher, err := services.NewItineraryFileWatcher(source, logger)
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	itineraryHandler := handlers.NewItineraryHandler(source, logger)
	muxRouter := mux.NewRouter()
	router := server.NewRouter(itineraryHandler, muxRouter, cfg.ResourcePath)
	rateLimiter := server.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)
	httpServer := server.NewItineraryHttpServer(router, muxRouter, rateLimiter, cfg.ServerAddress, logger)

	return &ServerContainer{
		Config:                    cfg,
		Logger:                    logger,
		ItinerarySource:           source,
		ItineraryHandler:          itineraryHandler,
		MuxRouter:                 muxRouter,
		Router:                    router,
		RateLimiter:               rateLimiter,
		ItineraryHttpServer:       httpServer,
		ItineraryFileWatcher:      fileWatcher,
		ItineraryRefresherService: services.NewItineraryRefresherService(source, logger),
	}, nil
}

// ViewerContainer holds the itinerary viewer dependencies.
type ViewerContainer struct {
	Config               *config.Config
	Logger               *zap.Logger
	RedisClient          db.RedisClient
	OfflineCacheDao      *cachedao.RedisOfflineCacheDAO
	ItineraryAPI         itinerary.ItineraryAPI
	CachingClient        *itinerary.CachingItineraryClient
	DateFormatter        *util.DateFormatter
	ConnectivityObserver *services.ConnectivityObserver
	ConnectivityProbe    *services.ConnectivityProbe
	DataLoader           *services.DataLoader
	LifecycleObserver    *services.LifecycleObserver
	VersionWatcher       *services.VersionWatcher
	UIStateStore         *services.UIStateStore

	closeRedis func() error
}

// NewViewerContainer initializes and wires up the viewer. Nothing runs until
// Start is called.
func NewViewerContainer(cfg *config.Config, logger *zap.Logger) (*ViewerContainer, error) {
	logger.Info("initializing viewer container", zap.String("env", cfg.Env))
	ctx := context.Background()

	// Offline cache store: Redis in prod, in-memory otherwise
	var redisClient db.RedisClient
	closeRedis := func() error { return nil }
	if cfg.Env == "prod" {
		internal := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		goRedisClient := db.NewGoRedisClient(ctx, internal)
		if err := goRedisClient.Ping(); err != nil {
			internal.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		redisClient = goRedisClient
		closeRedis = goRedisClient.Close
	} else {
		logger.Info("using in-memory offline cache")
		redisClient = db.NewMockRedisClient(ctx)
	}
	offlineCacheDao := cachedao.NewRedisOfflineCacheDAO(redisClient)

	// Itinerary API: file-backed mock for local runs
	var itineraryAPI itinerary.ItineraryAPI
	resourceURL := cfg.ItineraryURL()
	if cfg.Env == "local" {
		logger.Info("using mock itinerary api", zap.String("file", cfg.ItineraryFile))
		itineraryAPI = itinerary.NewItineraryApiClientMock(cfg.ItineraryFile, cfg.Version)
	} else {
		client := itinerary.NewItineraryApiClient(api.NewHTTPClient(cfg.ServerBaseURL), cfg.ResourcePath)
		resourceURL = client.ResourceURL()
		itineraryAPI = client
	}

	connectivity := services.NewConnectivityObserver(true, logger)
	cachingClient := itinerary.NewCachingItineraryClient(itineraryAPI, offlineCacheDao, resourceURL, connectivity.IsOnline, logger)

	formatter := util.NewDateFormatter(cfg.Locale)
	loader := services.NewDataLoader(cachingClient, connectivity, services.DataLoaderOptions{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Formatter:   formatter,
	}, logger)

	lifecycle := services.NewLifecycleObserver(cfg.NotificationTTL, logger)
	cachingClient.OnCached(lifecycle.HandleOfflineReady)

	// Registered first, so later subscribers see the UI already initialized
	// from the same load.
	uiState := services.NewUIStateStore()
	loader.Subscribe(func(st services.LoadState) {
		if st.Phase == services.PhaseLoaded {
			uiState.InitializeFrom(st.Days, timeNow())
		}
	})

	return &ViewerContainer{
		Config:               cfg,
		Logger:               logger,
		RedisClient:          redisClient,
		OfflineCacheDao:      offlineCacheDao,
		ItineraryAPI:         itineraryAPI,
		CachingClient:        cachingClient,
		DateFormatter:        formatter,
		ConnectivityObserver: connectivity,
		ConnectivityProbe:    services.NewConnectivityProbe(itineraryAPI, connectivity, logger),
		DataLoader:           loader,
		LifecycleObserver:    lifecycle,
		VersionWatcher:       services.NewVersionWatcher(itineraryAPI, loader, lifecycle, logger),
		UIStateStore:         uiState,
		closeRedis:           closeRedis,
	}, nil
}

// Start probes connectivity once, begins loading and, when watch is set,
// starts the background probe and version polling.
func (c *ViewerContainer) Start(ctx context.Context, watch bool) {
	c.ConnectivityProbe.CheckNow(ctx)
	c.DataLoader.Start()
	if _, err := c.VersionWatcher.CheckNow(ctx); err != nil {
		c.Logger.Debug("initial version check failed", zap.Error(err))
	}
	if watch {
		c.ConnectivityProbe.StartPeriodicJob(c.Config.ProbeInterval)
		c.VersionWatcher.StartPeriodicJob(c.Config.VersionInterval)
	}
}

// Close stops every background goroutine and releases the cache store.
func (c *ViewerContainer) Close() {
	c.VersionWatcher.Stop()
	c.ConnectivityProbe.Stop()
	c.DataLoader.Close()
	if err := c.closeRedis(); err != nil {
		c.Logger.Warn("error closing redis", zap.Error(err))
	}
}

var timeNow = time.Now
