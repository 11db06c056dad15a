package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server config
const SERVER_ADDRESS = ":8080"
const APP_VERSION = "1.4.0"

// Itinerary resource config
const ITINERARY_RESOURCE_PATH = "/data/itinerary.json"
const ITINERARY_SERVER_BASE_URL = "http://localhost:8080"

// Redis Config
const REDIS_DB_ADDRESS = "redis:6379"
const REDIS_DB_PASSWORD = ""
const REDIS_DB = 0

// Data loader retry config.
// Delay before attempt n+1 is n * DATA_LOADER_RETRY_BASE_DELAY_SECONDS.
const DATA_LOADER_MAX_ATTEMPTS = 3
const DATA_LOADER_RETRY_BASE_DELAY_SECONDS = 1

// Connectivity probe / version watcher config
const CONNECTIVITY_PROBE_INTERVAL_SECONDS = 10
const VERSION_WATCHER_INTERVAL_SECONDS = 60

// Periodic itinerary reload, for filesystems without change notifications
const ITINERARY_REFRESHER_SERVICE_SCHEDULE_MINUTES = 5

// Notifications auto-dismiss after this many seconds
const NOTIFICATION_TTL_SECONDS = 5

// Rate limit for the itinerary server, per client IP
const RATE_LIMIT_REQUESTS_PER_SECOND = 10
const RATE_LIMIT_BURST = 20

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const ITINERARY_RESOURCE = "itinerary.json"

// Config holds the runtime configuration. Every field defaults to the
// constant of the same meaning and can be overridden from the environment.
type Config struct {
	Env     string
	Debug   bool
	Version string

	ServerAddress string
	ItineraryFile string

	ServerBaseURL string
	ResourcePath  string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	MaxAttempts     int
	RetryBaseDelay  time.Duration
	ProbeInterval   time.Duration
	VersionInterval time.Duration
	RefreshInterval time.Duration
	NotificationTTL time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
	Locale          string
}

// Load reads a .env file if present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	return &Config{
		Env:     getEnv("TRIP_ENV", "dev"),
		Debug:   getEnvBool("TRIP_DEBUG", false),
		Version: getEnv("TRIP_APP_VERSION", APP_VERSION),

		ServerAddress: getEnv("TRIP_SERVER_ADDRESS", SERVER_ADDRESS),
		ItineraryFile: getEnv("TRIP_ITINERARY_FILE", GetResourcePath(ITINERARY_RESOURCE)),

		ServerBaseURL: getEnv("TRIP_SERVER_BASE_URL", ITINERARY_SERVER_BASE_URL),
		ResourcePath:  getEnv("TRIP_RESOURCE_PATH", ITINERARY_RESOURCE_PATH),

		RedisAddress:  getEnv("TRIP_REDIS_ADDRESS", REDIS_DB_ADDRESS),
		RedisPassword: getEnv("TRIP_REDIS_PASSWORD", REDIS_DB_PASSWORD),
		RedisDB:       getEnvInt("TRIP_REDIS_DB", REDIS_DB),

		MaxAttempts:     getEnvInt("TRIP_LOADER_MAX_ATTEMPTS", DATA_LOADER_MAX_ATTEMPTS),
		RetryBaseDelay:  getEnvSeconds("TRIP_LOADER_RETRY_DELAY_SECONDS", DATA_LOADER_RETRY_BASE_DELAY_SECONDS),
		ProbeInterval:   getEnvSeconds("TRIP_PROBE_INTERVAL_SECONDS", CONNECTIVITY_PROBE_INTERVAL_SECONDS),
		VersionInterval: getEnvSeconds("TRIP_VERSION_INTERVAL_SECONDS", VERSION_WATCHER_INTERVAL_SECONDS),
		RefreshInterval: time.Duration(getEnvInt("TRIP_REFRESH_INTERVAL_MINUTES", ITINERARY_REFRESHER_SERVICE_SCHEDULE_MINUTES)) * time.Minute,
		NotificationTTL: getEnvSeconds("TRIP_NOTIFICATION_TTL_SECONDS", NOTIFICATION_TTL_SECONDS),
		RateLimitPerSec: float64(getEnvInt("TRIP_RATE_LIMIT_RPS", RATE_LIMIT_REQUESTS_PER_SECOND)),
		RateLimitBurst:  getEnvInt("TRIP_RATE_LIMIT_BURST", RATE_LIMIT_BURST),
		Locale:          getEnv("TRIP_LOCALE", "en"),
	}
}

// ItineraryURL is the absolute URL of the itinerary resource.
func (c *Config) ItineraryURL() string {
	return c.ServerBaseURL + c.ResourcePath
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: %s=%q is not an integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("WARNING: %s=%q is not a boolean, using %v", key, value, fallback)
		return fallback
	}
	return b
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	// Check if PROJECT_ROOT is set
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	// Default to the current working directory
	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resource_file string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resource_file)
}
