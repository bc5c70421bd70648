package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the libpq connection string. When redact is set the password is omitted.
func (c DatabaseConfig) DSN(redact bool) string {
	if redact {
		return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Name, c.SSLMode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTTLSeconds  int64  `mapstructure:"access_ttl_seconds"`
	RefreshTTLSeconds int64  `mapstructure:"refresh_ttl_seconds"`
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSeconds) * time.Second
}

type CookieConfig struct {
	RefreshName string `mapstructure:"refresh_name"`
	Secure      bool   `mapstructure:"secure"`
	SameSite    string `mapstructure:"same_site"`
	Path        string `mapstructure:"path"`
}

type SecurityConfig struct {
	Cookie CookieConfig `mapstructure:"cookie"`
	CORS   struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

type LedgerConfig struct {
	Driver        string        `mapstructure:"driver"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SeedConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Password string `mapstructure:"password"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Log      LogConfig      `mapstructure:"log"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"

	minSecretLength = 32
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "jwt_auth")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "jwt-auth-api")
	v.SetDefault("jwt.access_ttl_seconds", 900)
	v.SetDefault("jwt.refresh_ttl_seconds", 1209600)

	v.SetDefault("security.cookie.refresh_name", "refresh_token")
	v.SetDefault("security.cookie.secure", false)
	v.SetDefault("security.cookie.same_site", "Lax")
	v.SetDefault("security.cookie.path", "/api/auth")
	v.SetDefault("security.cors.allowed_origins", []string{})

	v.SetDefault("ledger.driver", LedgerPostgres)
	v.SetDefault("ledger.sweep_interval", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.password", "password1234")
}

// LoadConfig reads config.yml from path, if present, and overlays environment
// variables such as JWT_SECRET or DATABASE_HOST.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("jwt.secret must be at least %d bytes", minSecretLength)
	}
	if c.JWT.AccessTTLSeconds <= 0 || c.JWT.RefreshTTLSeconds <= 0 {
		return errors.New("jwt token TTLs must be positive")
	}
	if c.JWT.AccessTTLSeconds >= c.JWT.RefreshTTLSeconds {
		return errors.New("jwt.access_ttl_seconds must be shorter than jwt.refresh_ttl_seconds")
	}
	switch strings.ToLower(c.Security.Cookie.SameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("unsupported security.cookie.same_site %q", c.Security.Cookie.SameSite)
	}
	if c.Security.Cookie.RefreshName == "" {
		return errors.New("security.cookie.refresh_name is required")
	}
	switch c.Ledger.Driver {
	case LedgerPostgres, LedgerRedis:
	default:
		return fmt.Errorf("unsupported ledger.driver %q", c.Ledger.Driver)
	}
	return nil
}
