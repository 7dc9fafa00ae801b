package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the process-wide configuration, loaded once at startup from
// ZAPKART_* environment variables. A local .env file is honored when present.
type Config struct {
	Environment      string `envconfig:"ENVIRONMENT" default:"development"`
	ServiceName      string `envconfig:"SERVICE_NAME" default:"zapkart-api"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnWithStack bool   `envconfig:"LOG_WARN_WITH_STACK" default:"false"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Gateway  GatewayConfig
	Geocode  GeocodeConfig
	SMTP     SMTPConfig
	Tracking TrackingConfig
	Delivery DeliveryConfig
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	AllowedOrigins  []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"zapkart"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"zapkart"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type AuthConfig struct {
	JWTSecret      string        `envconfig:"AUTH_JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
	SessionTTL     time.Duration `envconfig:"AUTH_SESSION_TTL" default:"720h"`
	InvitationTTL  time.Duration `envconfig:"AUTH_INVITATION_TTL" default:"168h"`
	MaxLoginPerMin int           `envconfig:"AUTH_MAX_LOGIN_PER_MIN" default:"10"`
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"PUBSUB_PROJECT_ID" default:"zapkart-local"`
	TopicID           string `envconfig:"PUBSUB_TOPIC_ID" default:"zapkart-events"`
	NotificationSubID string `envconfig:"PUBSUB_NOTIFICATION_SUB_ID" default:"zapkart-events.notifications"`
	EmulatorHost      string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"8"`
}

type GatewayConfig struct {
	BaseURL       string        `envconfig:"GATEWAY_BASE_URL" default:"https://gateway.example.com"`
	KeyID         string        `envconfig:"GATEWAY_KEY_ID"`
	SigningSecret string        `envconfig:"GATEWAY_SIGNING_SECRET"`
	Timeout       time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
}

type GeocodeConfig struct {
	NominatimBaseURL string        `envconfig:"GEOCODE_NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	PhotonBaseURL    string        `envconfig:"GEOCODE_PHOTON_BASE_URL" default:"https://photon.komoot.io"`
	UserAgent        string        `envconfig:"GEOCODE_USER_AGENT" default:"zapkart-backend/1.0"`
	Timeout          time.Duration `envconfig:"GEOCODE_TIMEOUT" default:"8s"`
	CacheTTL         time.Duration `envconfig:"GEOCODE_CACHE_TTL" default:"24h"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@zapkart.example.com"`
}

type TrackingConfig struct {
	MinPublishInterval time.Duration `envconfig:"TRACKING_MIN_PUBLISH_INTERVAL" default:"10s"`
	RetentionPerOrder  int           `envconfig:"TRACKING_RETENTION_PER_ORDER" default:"500"`
}

type DeliveryConfig struct {
	ResponseTimeout time.Duration `envconfig:"DELIVERY_RESPONSE_TIMEOUT" default:"2m"`
	NotificationCap int           `envconfig:"DELIVERY_NOTIFICATION_CAP" default:"100"`
}

// Load reads configuration from the environment. Missing .env files are
// not an error; a missing required variable is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ZAPKART", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
