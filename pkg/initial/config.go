package initial

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"learnhub/pkg/courses"
	"learnhub/pkg/storage/postgres"
)

type Config struct {
	Port           string
	Storage        string
	DB             postgres.Config
	RedisURL       string
	RedisPassword  string
	CacheTTL       time.Duration
	KafkaAddress   string
	ESAddress      string
	ESUser         string
	ESPassword     string
	ESSkipVerify   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
	Secret         string
	AllowedOrigins []string
}

// LoadEnv reads .env when present; the process environment wins otherwise.
func LoadEnv(logger *log.Logger, files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Println(".env file not found, using the process environment")
	}
}

func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "learnhub")
	v.SetDefault("COURSE_CACHE_TTL", courses.DefaultCacheTTL.String())
	v.SetDefault("ES_USER", "elastic")
	v.SetDefault("MINIO_BUCKET", "lesson-media")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.AutomaticEnv()

	cfg := Config{
		Port:    v.GetString("PORT"),
		Storage: strings.ToLower(v.GetString("STORAGE")),
		DB: postgres.Config{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		RedisURL:       v.GetString("REDIS_URL"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		KafkaAddress:   v.GetString("KAFKA_ADDRESS"),
		ESAddress:      v.GetString("ES"),
		ESUser:         v.GetString("ES_USER"),
		ESPassword:     v.GetString("PASS_ES"),
		ESSkipVerify:   v.GetBool("ES_SKIP_VERIFY"),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioSecure:    v.GetBool("MINIO_SECURE"),
		Secret:         v.GetString("SECRET"),
	}
	for _, o := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.Secret == "" {
		return cfg, errors.New("SECRET is required")
	}
	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return cfg, errors.Errorf("unknown STORAGE %q, want postgres or memory", cfg.Storage)
	}
	ttl, err := parseTTL(v.GetString("COURSE_CACHE_TTL"))
	if err != nil {
		return cfg, err
	}
	cfg.CacheTTL = ttl
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = courses.DefaultCacheTTL
	}
	return cfg, nil
}

// parseTTL reads a bare integer as seconds and anything else as a Go duration.
func parseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Errorf("COURSE_CACHE_TTL %q is neither seconds nor a duration like 5m", raw)
	}
	return d, nil
}
