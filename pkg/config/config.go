package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App             AppConfig
	Service         ServiceConfig
	DB              DBConfig
	Redis           RedisConfig
	Visitor         VisitorConfig
	Enquiry         EnquiryConfig
	Mail            MailConfig
	SubmitRateLimit SubmitRateLimitConfig
	FeatureFlags    FeatureFlagsConfig
	GCP             GCPConfig
	PubSub          PubSubConfig
	Outbox          OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ILIFT_APP_ENV" required:"true"`
	Port         string   `envconfig:"ILIFT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ILIFT_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"ILIFT_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"ILIFT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ILIFT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ILIFT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ILIFT_DB_DSN"`
	Driver string `envconfig:"ILIFT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ILIFT_DB_HOST"`
	LegacyPort     int    `envconfig:"ILIFT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ILIFT_DB_USER"`
	LegacyPassword string `envconfig:"ILIFT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ILIFT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ILIFT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ILIFT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ILIFT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ILIFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ILIFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ILIFT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ILIFT_REDIS_ADDR"`
	Password     string        `envconfig:"ILIFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ILIFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ILIFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ILIFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ILIFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ILIFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ILIFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// VisitorConfig controls the anonymous visitor cookie that scopes enquiry carts.
type VisitorConfig struct {
	Secret       string        `envconfig:"ILIFT_VISITOR_SECRET" required:"true"`
	Issuer       string        `envconfig:"ILIFT_VISITOR_ISSUER" default:"ilift"`
	CookieName   string        `envconfig:"ILIFT_VISITOR_COOKIE" default:"ilift_visitor"`
	CookieDomain string        `envconfig:"ILIFT_VISITOR_COOKIE_DOMAIN"`
	TTL          time.Duration `envconfig:"ILIFT_VISITOR_TTL" default:"8760h"`
}

type EnquiryConfig struct {
	CartTTL       time.Duration `envconfig:"ILIFT_ENQUIRY_CART_TTL" default:"2160h"`
	RegistrySize  int           `envconfig:"ILIFT_ENQUIRY_REGISTRY_SIZE" default:"10000"`
	SubmitTimeout time.Duration `envconfig:"ILIFT_ENQUIRY_SUBMIT_TIMEOUT" default:"20s"`
	// EventsKeepAlive is the ping interval on the snapshot stream.
	EventsKeepAlive time.Duration `envconfig:"ILIFT_ENQUIRY_EVENTS_KEEPALIVE" default:"25s"`
}

type MailConfig struct {
	Host     string `envconfig:"ILIFT_SMTP_HOST" required:"true"`
	Port     int    `envconfig:"ILIFT_SMTP_PORT" default:"587"`
	Username string `envconfig:"ILIFT_SMTP_USERNAME"`
	Password string `envconfig:"ILIFT_SMTP_PASSWORD"`
	From     string `envconfig:"ILIFT_MAIL_FROM" required:"true"`
	// LeadRecipients receive every quote request.
	LeadRecipients []string `envconfig:"ILIFT_MAIL_LEAD_RECIPIENTS" required:"true"`
}

type SubmitRateLimitConfig struct {
	Window     time.Duration `envconfig:"ILIFT_SUBMIT_RATE_LIMIT_WINDOW" default:"10m"`
	IPLimit    int           `envconfig:"ILIFT_SUBMIT_RATE_LIMIT_IP_LIMIT" default:"10"`
	EmailLimit int           `envconfig:"ILIFT_SUBMIT_RATE_LIMIT_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"ILIFT_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"ILIFT_AUTO_MIGRATE" default:"false"`
	PublishLeads bool `envconfig:"ILIFT_PUBLISH_LEADS" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ILIFT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	LeadsTopic string `envconfig:"ILIFT_PUBSUB_LEADS_TOPIC" default:"ilift-enquiry-leads"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ILIFT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ILIFT_OUTBOX_PUBLISH_POLL_MS" default:"1000"`
	MaxAttempts    int `envconfig:"ILIFT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval returns the configured publisher poll interval.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.Driver = DriverSQLite
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
