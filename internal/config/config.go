package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string        `yaml:"env" env:"ENV" env-default:"production"`
	LogLevel   string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	PGSQL      PQSQL         `yaml:"pgsql" env-required:"true"`
	HTTPServer HTTPServer    `yaml:"http_server" env-required:"true"`
	Redis      Redis         `yaml:"redis"`
	MinIO      MinIO         `yaml:"minio"`
	Media      Media         `yaml:"media"`
	Playback   Playback      `yaml:"playback"`
	Sweeper    Sweeper       `yaml:"sweeper"`
	RateLimit  RateLimit     `yaml:"rate_limit"`
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	// AdminUserIDs may use the cache admin endpoints. Empty means nobody.
	AdminUserIDs []string `yaml:"admin_user_ids" env:"ADMIN_USER_IDS" env-separator:","`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"familybook"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	// PublicBaseURL overrides the endpoint when building public object URLs (CDN, reverse proxy).
	PublicBaseURL string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL"`
}

type Media struct {
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"26214400"`
	MaxBatchSize     int64    `yaml:"max_batch_size" env-default:"104857600"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-separator:"," env-default:"image/jpeg,image/png,image/gif,image/webp,video/mp4,video/webm"`
	StoriesBucket    string   `yaml:"stories_bucket" env-default:"stories"`
	PhotosBucket     string   `yaml:"photos_bucket" env-default:"photos"`
}

type Playback struct {
	Interval time.Duration `yaml:"interval" env-default:"100ms"`
	Duration time.Duration `yaml:"duration" env-default:"5s"`
}

type Sweeper struct {
	Interval time.Duration `yaml:"interval" env-default:"1h"`
	// Grace keeps fresh blobs whose metadata row may still be in flight.
	Grace time.Duration `yaml:"grace" env-default:"30m"`
}

// RateLimit holds per-user token buckets, refilled once a minute.
type RateLimit struct {
	UploadsPerMinute  int64 `yaml:"uploads_per_minute" env:"RATE_UPLOADS" env-default:"20"`
	CommentsPerMinute int64 `yaml:"comments_per_minute" env:"RATE_COMMENTS" env-default:"60"`
	JoinsPerMinute    int64 `yaml:"joins_per_minute" env:"RATE_JOINS" env-default:"5"`
}

func MustLoad() *Config {
	// .env is optional; real env vars always win over it.
	_ = godotenv.Load()

	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}

// DSN builds the lib/pq connection string.
func (p PQSQL) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}
