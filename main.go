package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/makkaratutka/config"
	"sjsage522/makkaratutka/internal/crawler"
	"sjsage522/makkaratutka/internal/geocode"
	"sjsage522/makkaratutka/internal/menu"
	"sjsage522/makkaratutka/logger"
	"sjsage522/makkaratutka/services/cache"
	"sjsage522/makkaratutka/services/publisher"
	"sjsage522/makkaratutka/services/worker"
)

const rateLimitCacheKey = "listing_rate_limited"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("city", cfg.City).
		Str("mode", cfg.SearchMode).
		Float64("radius_km", cfg.MaxSearchRadiusKm).
		Msg("Starting application")

	// Cancel on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	w := buildWorker(ctx, cfg, services)

	if cfg.Schedule != "" {
		if err := w.Start(cfg.Schedule); err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
			services.Cleanup()
			os.Exit(1)
		}
		log.Info().Msg("Shutting down gracefully...")
		return
	}

	if err := runOnce(w, cfg.MaxSearchRadiusKm, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Search failed")
		services.Cleanup()
		os.Exit(1)
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
		s.Publisher = nil
	}
}

// initializeServices connects the optional cache and publisher. A service
// that is not configured or not reachable is left nil.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr, "makkara:")
		if err := cacheService.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, running without cache: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			logger.Warn("Redis at %s unavailable, reports will not be published: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

// buildWorker wires the crawler, geocoder and analyzer for cfg
func buildWorker(ctx context.Context, cfg *config.Config, services *Services) *worker.Worker {
	nominatim := geocode.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent)
	geocoder := geocode.NewCachedGeocoder(nominatim, services.Cache, cfg.GeocodeCacheTTL())

	city := resolveCity(ctx, cfg, nominatim)

	listing := crawler.NewListingCrawler(crawler.CrawlerConfig{
		BaseURL:      cfg.ListingBaseURL,
		City:         city,
		CacheKey:     rateLimitCacheKey,
		BlockTime:    cfg.RateLimitBlockSeconds,
		RendererAddr: cfg.RendererAddr,
		RenderWait:   cfg.RenderWait(),
	}, services.Cache)

	return worker.NewWorker(ctx, listing, menu.NewAnalyzer(geocoder), services.Publisher, worker.Settings{
		Mode:              cfg.Mode(),
		City:              city,
		UserLocation:      cfg.UserLocation(),
		MaxSearchRadiusKm: cfg.MaxSearchRadiusKm,
		Locale:            cfg.Locale,
		DayHashes:         cfg.WeekDayHashes,
	})
}

// resolveCity looks up the municipality of the user's location, falling
// back to the configured city.
func resolveCity(ctx context.Context, cfg *config.Config, nominatim *geocode.NominatimClient) string {
	location := cfg.UserLocation()
	if location == nil {
		return cfg.City
	}

	city, err := nominatim.ReverseCity(ctx, *location)
	if err != nil {
		logger.Warn("Could not resolve city from location, using %s: %v", cfg.City, err)
		return cfg.City
	}
	logger.Info("Resolved city %s from location", city)
	return city
}

// runOnce performs a single search, publishes it and prints the results
func runOnce(w *worker.Worker, radiusKm float64, out io.Writer) error {
	report, err := w.RunAndPublish()
	if err != nil {
		return err
	}
	printReport(out, report, radiusKm)
	return nil
}

func printReport(out io.Writer, report *worker.Report, radiusKm float64) {
	if len(report.Results) == 0 {
		fmt.Fprintf(out, "Ei löytynyt uunimakkaraa tai uunilenkkiä %skm säteellä.\n",
			strconv.FormatFloat(radiusKm, 'f', -1, 64))
		return
	}
	for _, result := range report.Results {
		fmt.Fprintln(out, result.Describe(report.Mode))
	}
}
