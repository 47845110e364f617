package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendRedis     = "redis"
)

type Config struct {
	Port           string   `envconfig:"PORT" default:"8080"`
	PublicBaseURL  string   `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	UploadDir      string   `envconfig:"UPLOAD_DIR" default:"static"`
	JWTSecret      string   `envconfig:"JWT_SECRET"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"LOG_FORMAT" default:"text"`

	// DBBackend selects the system of record: firestore or memory (local dev).
	DBBackend string          `envconfig:"DB_BACKEND" default:"firestore"`
	Firestore FirestoreConfig `envconfig:"FIRESTORE"`
	Mongo     MongoConfig     `envconfig:"MONGO"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	Webhook   WebhookConfig   `envconfig:"WEBHOOK_WORKER"`
	RateLimit RateLimitConfig `envconfig:"PAYMENT_RATE"`

	Gateway gateway.Config `envconfig:"BANK_MUSCAT"`
}

type FirestoreConfig struct {
	ProjectID       string `envconfig:"PROJECT_ID"`
	CredentialsFile string `envconfig:"CREDENTIALS_FILE"`
}

type MongoConfig struct {
	URI      string `envconfig:"URI"`
	Database string `envconfig:"DATABASE" default:"storefront"`
}

type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type CacheConfig struct {
	Backend    string        `envconfig:"BACKEND" default:"memory"`
	Capacity   int           `envconfig:"CAPACITY" default:"500"`
	ProductTTL time.Duration `envconfig:"PRODUCT_TTL" default:"5m"`
	ListTTL    time.Duration `envconfig:"LIST_TTL" default:"2m"`
	StaleTTL   time.Duration `envconfig:"STALE_TTL" default:"24h"`
}

type WebhookConfig struct {
	Workers   int `envconfig:"COUNT" default:"2"`
	QueueSize int `envconfig:"QUEUE_SIZE" default:"100"`
}

type RateLimitConfig struct {
	PerSecond float64 `envconfig:"PER_SECOND" default:"1"`
	Burst     int     `envconfig:"BURST" default:"5"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not parse .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if !strings.HasPrefix(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	switch c.DBBackend {
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required when DB_BACKEND=firestore")
		}
	case BackendMemory:
	default:
		return errors.Errorf("unknown DB_BACKEND %q", c.DBBackend)
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return errors.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; admin and customer routes will reject every token")
	}

	c.Gateway.Normalize(c.PublicBaseURL)
	return nil
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the global logger.
func SetupLogging(c *Config) {
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
