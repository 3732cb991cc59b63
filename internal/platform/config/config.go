// Package config loads process configuration from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Photo backends.
const (
	PhotoDisk = "disk"
	PhotoS3   = "s3"
)

// Config is the full process configuration.
type Config struct {
	Port        string   `yaml:"port"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`

	Store    StoreConfig    `yaml:"store"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Redis    RedisConfig    `yaml:"redis"`
	Photo    PhotoConfig    `yaml:"photo"`
}

// StoreConfig selects the profile record store and its connection settings.
type StoreConfig struct {
	Backend                      string `yaml:"backend"`
	FirebaseProjectID            string `yaml:"firebase_project_id"`
	GoogleApplicationCredentials string `yaml:"google_application_credentials"`
	DatabaseURL                  string `yaml:"database_url"`
}

// GeocoderConfig configures the Nominatim client and its cache TTL.
type GeocoderConfig struct {
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	Email      string        `yaml:"email"`
	Timeout    time.Duration `yaml:"timeout"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// RedisConfig enables the geocode cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PhotoConfig selects where ingested photos are stored and how they are bounded.
type PhotoConfig struct {
	Backend        string        `yaml:"backend"`
	UploadDir      string        `yaml:"upload_dir"`
	PublicBaseURL  string        `yaml:"public_base_url"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	Timeout        time.Duration `yaml:"timeout"`
	S3             S3Config      `yaml:"s3"`
}

// S3Config holds the S3-compatible bucket settings for the s3 photo backend.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

// Default returns the settings used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		Store: StoreConfig{
			Backend: StoreMemory,
		},
		Geocoder: GeocoderConfig{
			BaseURL:    "https://nominatim.openstreetmap.org",
			UserAgent:  "profile-directory/1.0",
			Timeout:    5 * time.Second,
			RatePerSec: 1,
			CacheTTL:   24 * time.Hour,
		},
		Photo: PhotoConfig{
			Backend:        PhotoDisk,
			UploadDir:      "uploads",
			MaxUploadBytes: 5 << 20,
			Timeout:        15 * time.Second,
			S3: S3Config{
				Bucket: "profile-photos",
			},
		},
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the
// environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, parse func(string) error) {
		if v, ok := lookup(key); ok && v != "" {
			if err := parse(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	str("STORE_BACKEND", &cfg.Store.Backend)
	str("FIREBASE_PROJECT_ID", &cfg.Store.FirebaseProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Store.GoogleApplicationCredentials)
	str("DATABASE_URL", &cfg.Store.DatabaseURL)

	str("GEOCODER_BASE_URL", &cfg.Geocoder.BaseURL)
	str("GEOCODER_USER_AGENT", &cfg.Geocoder.UserAgent)
	str("GEOCODER_EMAIL", &cfg.Geocoder.Email)
	dur("GEOCODER_TIMEOUT", &cfg.Geocoder.Timeout)
	dur("GEOCODE_CACHE_TTL", &cfg.Geocoder.CacheTTL)
	num("GEOCODER_RATE_PER_SEC", func(v string) (err error) {
		cfg.Geocoder.RatePerSec, err = strconv.ParseFloat(v, 64)
		return err
	})

	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", func(v string) (err error) {
		cfg.Redis.DB, err = strconv.Atoi(v)
		return err
	})

	str("PHOTO_BACKEND", &cfg.Photo.Backend)
	str("UPLOAD_DIR", &cfg.Photo.UploadDir)
	str("PUBLIC_BASE_URL", &cfg.Photo.PublicBaseURL)
	dur("PHOTO_TIMEOUT", &cfg.Photo.Timeout)
	num("MAX_UPLOAD_BYTES", func(v string) (err error) {
		cfg.Photo.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	str("S3_ENDPOINT", &cfg.Photo.S3.Endpoint)
	str("S3_ACCESS_KEY", &cfg.Photo.S3.AccessKey)
	str("S3_SECRET_KEY", &cfg.Photo.S3.SecretKey)
	str("S3_REGION", &cfg.Photo.S3.Region)
	str("S3_BUCKET", &cfg.Photo.S3.Bucket)
	str("S3_PUBLIC_URL", &cfg.Photo.S3.PublicURL)
	num("S3_USE_SSL", func(v string) (err error) {
		cfg.Photo.S3.UseSSL, err = strconv.ParseBool(v)
		return err
	})

	return errors.Join(errs...)
}

// Validate checks backend names and the settings each backend requires.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreMemory:
	case StoreFirestore:
		if c.Store.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore store"))
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Photo.Backend {
	case PhotoDisk:
		if c.Photo.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for disk photo storage"))
		}
	case PhotoS3:
		if c.Photo.S3.Endpoint == "" || c.Photo.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_ENDPOINT and S3_BUCKET are required for s3 photo storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photo backend %q", c.Photo.Backend))
	}

	if c.Photo.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Geocoder.RatePerSec < 0 {
		errs = append(errs, errors.New("GEOCODER_RATE_PER_SEC must not be negative"))
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, errors.New("GEOCODER_BASE_URL is required"))
	}
	if c.Redis.Addr != "" && c.Geocoder.CacheTTL <= 0 {
		errs = append(errs, errors.New("GEOCODE_CACHE_TTL must be positive when REDIS_ADDR is set"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
