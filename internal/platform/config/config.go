package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures process-wide configuration. It is read-only after startup.
type Server struct {
	Addr           string        `yaml:"addr"`
	Environment    string        `yaml:"environment"`
	JWTSigningKey  string        `yaml:"jwt_signing_key"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
	StoreTimeout   time.Duration `yaml:"store_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	LogLevel       string        `yaml:"log_level"`
	TrustedProxies []string      `yaml:"trusted_proxies"`

	// LegacyAuthz restores name-based ownership matching and drops the
	// revoke/decision ownership checks.
	LegacyAuthz bool `yaml:"authz_legacy"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	OTP      OTPConfig      `yaml:"otp"`
	Shares   ShareConfig    `yaml:"shares"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

// OTPConfig selects between the fixed demo code and per-email TOTP secrets.
type OTPConfig struct {
	Mode      string        `yaml:"mode"`
	FixedCode string        `yaml:"fixed_code"`
	Issuer    string        `yaml:"issuer"`
	SecretTTL time.Duration `yaml:"secret_ttl"`
}

type ShareConfig struct {
	Retention       time.Duration `yaml:"retention"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Server {
	return Server{
		Addr:           ":8080",
		Environment:    "development",
		JWTSigningKey:  devSigningKey,
		JWTIssuer:      "credvault",
		TokenTTL:       7 * 24 * time.Hour,
		BcryptCost:     12,
		StoreTimeout:   5 * time.Second,
		RequestTimeout: 30 * time.Second,
		MaxBodyBytes:   50 << 20,
		LogLevel:       "info",
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:    "credvault.notifications",
			ClientID: "credvault",
		},
		OTP: OTPConfig{
			Mode:      "fixed",
			FixedCode: "123456",
			Issuer:    "CredVault",
			SecretTTL: 10 * time.Minute,
		},
		Shares: ShareConfig{
			Retention:       30 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}

// FromEnv starts from Defaults, applies the YAML file named by CONFIG_FILE
// when set, then applies environment variables.
func FromEnv() (Server, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Server{}, err
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Server{}, err
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Server) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Server, getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int64) {
		if v := getenv(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv(key); v != "" {
			*dst = strings.Split(v, ",")
		}
	}

	str("ADDR", &cfg.Addr)
	str("ENVIRONMENT", &cfg.Environment)
	str("JWT_SIGNING_KEY", &cfg.JWTSigningKey)
	str("JWT_ISSUER", &cfg.JWTIssuer)
	dur("TOKEN_TTL", &cfg.TokenTTL)
	dur("STORE_TIMEOUT", &cfg.StoreTimeout)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	num("MAX_BODY_BYTES", &cfg.MaxBodyBytes)
	str("LOG_LEVEL", &cfg.LogLevel)
	list("TRUSTED_PROXIES", &cfg.TrustedProxies)
	str("DATABASE_URL", &cfg.Database.URL)
	str("REDIS_URL", &cfg.Redis.URL)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("OTP_MODE", &cfg.OTP.Mode)
	dur("SHARE_RETENTION", &cfg.Shares.Retention)
	dur("SHARE_CLEANUP_INTERVAL", &cfg.Shares.CleanupInterval)

	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BCRYPT_COST: %w", err))
		} else {
			cfg.BcryptCost = n
		}
	}
	if v := getenv("AUTHZ_LEGACY"); v != "" {
		cfg.LegacyAuthz = v == "true"
	}
	return errors.Join(errs...)
}

func (s Server) validate() error {
	if s.IsProduction() && (s.JWTSigningKey == "" || s.JWTSigningKey == devSigningKey) {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	switch s.OTP.Mode {
	case "fixed", "totp":
	default:
		return fmt.Errorf("OTP_MODE must be fixed or totp, got %q", s.OTP.Mode)
	}
	if s.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}
