// Package config reads pipeline configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/events"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/layout"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/lock"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/storage"
)

// DefaultPlaylist is extracted when SPOTIFY_PLAYLIST is not set.
const DefaultPlaylist = "https://open.spotify.com/playlist/3OK8UdRoB6IfDEa1pNJTQE"

// ErrInvalidValue is returned when a variable cannot be parsed.
var ErrInvalidValue = errors.New("invalid environment variable")

// SpotifyConfig holds Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Playlist     string
	MaxPages     int
	APIURL       string
	TokenURL     string
}

// Config holds configuration for every pipeline stage.
type Config struct {
	Spotify      SpotifyConfig
	Storage      storage.Config
	Layout       layout.Layout
	WriteParquet bool

	DatabaseURL string

	Kafka   events.Config
	Redis   lock.Config
	LockTTL time.Duration

	PushgatewayURL string

	LogLevel  string
	LogPretty bool
	ServeAddr string
}

// LoadConfig reads configuration from environment variables.
// Missing values fall back to defaults; credentials are checked by the
// components that need them. Returns ErrInvalidValue for unparseable values.
func LoadConfig() (*Config, error) {
	maxPages, err := intEnv("SPOTIFY_MAX_PAGES", 0)
	if err != nil {
		return nil, err
	}
	writeParquet, err := boolEnv("WRITE_PARQUET", false)
	if err != nil {
		return nil, err
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	lockTTL, err := durationEnv("LOCK_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	logPretty, err := boolEnv("LOG_PRETTY", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_ID"),
			ClientSecret: os.Getenv("SPOTIFY_SECRET"),
			Playlist:     stringEnv("SPOTIFY_PLAYLIST", DefaultPlaylist),
			MaxPages:     maxPages,
			APIURL:       os.Getenv("SPOTIFY_API_URL"),
			TokenURL:     os.Getenv("SPOTIFY_TOKEN_URL"),
		},
		Storage: storage.Config{
			Backend: stringEnv("STORAGE_BACKEND", storage.BackendS3),
			S3: storage.S3Config{
				Bucket:   os.Getenv("S3_BUCKET"),
				Region:   stringEnv("AWS_REGION", "us-east-1"),
				Endpoint: os.Getenv("S3_ENDPOINT"),
			},
			LocalDir: stringEnv("LOCAL_STORAGE_DIR", "./data"),
		},
		Layout: layout.Layout{
			Pending:   os.Getenv("PENDING_PREFIX"),
			Processed: os.Getenv("PROCESSED_PREFIX"),
			Songs:     os.Getenv("SONGS_PREFIX"),
			Albums:    os.Getenv("ALBUMS_PREFIX"),
			Artists:   os.Getenv("ARTISTS_PREFIX"),
		}.Normalize(),
		WriteParquet: writeParquet,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Kafka: events.Config{
			Brokers: events.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
			Topic:   stringEnv("KAFKA_TOPIC", "spotify-etl-events"),
		},
		Redis: lock.Config{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		LockTTL:        lockTTL,
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		LogLevel:       stringEnv("LOG_LEVEL", "info"),
		LogPretty:      logPretty,
		ServeAddr:      stringEnv("SERVE_ADDR", "127.0.0.1:8080"),
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return d, nil
}
