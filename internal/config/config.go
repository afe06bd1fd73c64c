package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "ENGAGEMENT"

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// ConnString returns DSN when set, otherwise a postgres URL assembled from the parts.
func (c DatabaseConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	return u.String()
}

type StorageConfig struct {
	Driver          string
	CredentialsFile string
	Profile         string
	Bucket          string
	Endpoint        string
	Region          string
	UseSSL          bool
	PublicBaseURL   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	VenueTTL time.Duration
}

type SecurityConfig struct {
	JWTSecret        string
	JWTAccessTTL     time.Duration
	EnforceVenueAuth bool
}

type DebugConfig struct {
	ExposeTraces bool
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Database         DatabaseConfig
	Storage          StorageConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Debug            DebugConfig
	AllowCORSOrigins []string
}

// Load reads config.yaml (optional), a .env file (optional) and the environment.
// Environment keys use the ENGAGEMENT_ prefix with dots replaced by underscores,
// e.g. ENGAGEMENT_DATABASE_USER. The legacy names DB_USER, DB_PASS, DB_NAME,
// FIREBASE_CONF and FIREBASE_STORAGE_BUCKET are honoured as fallbacks.
func Load() (*AppConfig, error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Environment == "production" {
		cfg.Debug.ExposeTraces = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *AppConfig) Validate() error {
	var missing []string
	if c.Database.DSN == "" {
		if c.Database.User == "" {
			missing = append(missing, "database.user")
		}
		if c.Database.Password == "" {
			missing = append(missing, "database.password")
		}
		if c.Database.Name == "" {
			missing = append(missing, "database.name")
		}
	}
	if c.Storage.CredentialsFile == "" {
		missing = append(missing, "storage.credentialsfile")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "storage.bucket")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.Storage.Driver {
	case "minio", "s3":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Database.MinConns < 1 || c.Database.MaxConns < c.Database.MinConns {
		return errors.New("database pool bounds must satisfy 1 <= minconns <= maxconns")
	}

	if c.Security.EnforceVenueAuth || c.Environment == "production" {
		secret := strings.TrimSpace(c.Security.JWTSecret)
		if secret == "" || placeholderSecrets[strings.ToLower(secret)] {
			return errors.New("security.jwtsecret must be set to a real secret when venue auth is enforced or in production")
		}
	}
	return nil
}

var placeholderSecrets = map[string]bool{
	"change-me": true,
	"changeme":  true,
	"secret":    true,
}

func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"database.user":           "DB_USER",
		"database.password":       "DB_PASS",
		"database.name":           "DB_NAME",
		"storage.credentialsfile": "FIREBASE_CONF",
		"storage.bucket":          "FIREBASE_STORAGE_BUCKET",
	}
	for key, name := range legacy {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.maxconns", 100)
	v.SetDefault("database.minconns", 1)
	v.SetDefault("database.connmaxlifetime", "30m")

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.credentialsfile", "")
	v.SetDefault("storage.profile", "default")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.publicbaseurl", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.venuettl", "24h")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.jwtaccessttl", "12h")
	v.SetDefault("security.enforcevenueauth", false)

	v.SetDefault("debug.exposetraces", false)

	v.SetDefault("allowcorsorigins", []string{"http://localhost", "http://localhost:8080"})
}
