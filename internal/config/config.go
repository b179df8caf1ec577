package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port          string   `mapstructure:"port"`
		Env           string   `mapstructure:"env"`
		PublicBaseURL string   `mapstructure:"public_base_url"`
		CORSOrigins   []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
	DB struct {
		Driver         string `mapstructure:"driver"`
		DSN            string `mapstructure:"dsn"`
		MigrationsPath string `mapstructure:"migrations_path"`
		MongoURI       string `mapstructure:"mongo_uri"`
		MongoDatabase  string `mapstructure:"mongo_database"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		Mode          string        `mapstructure:"mode"`
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		JWKSIssuer    string        `mapstructure:"jwks_issuer"`
		JWKSAudience  string        `mapstructure:"jwks_audience"`
		WebhookSecret string        `mapstructure:"webhook_secret"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
	Preview struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"preview"`
	RateLimit struct {
		RPS   float64 `mapstructure:"rps"`
		Burst int     `mapstructure:"burst"`
	} `mapstructure:"ratelimit"`
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	AuthModeHS256 = "hs256"
	AuthModeJWKS  = "jwks"
)

// LoadConfig reads .env and config.yaml from path (if present) and lets the
// environment override every key.
func LoadConfig(path string) (cfg Config, err error) {
	if err = godotenv.Load(path + "/.env"); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.public_base_url", "PUBLIC_BASE_URL")
	v.BindEnv("app.cors_origins", "CORS_ORIGINS")
	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("db.migrations_path", "DB_MIGRATIONS_PATH")
	v.BindEnv("db.mongo_uri", "MONGO_URI")
	v.BindEnv("db.mongo_database", "MONGO_DATABASE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.mode", "AUTH_MODE")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.jwks_issuer", "AUTH_JWKS_ISSUER")
	v.BindEnv("auth.jwks_audience", "AUTH_JWKS_AUDIENCE")
	v.BindEnv("auth.webhook_secret", "WEBHOOK_SECRET")
	v.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")
	v.BindEnv("preview.timeout", "PREVIEW_TIMEOUT")
	v.BindEnv("ratelimit.rps", "RATELIMIT_RPS")
	v.BindEnv("ratelimit.burst", "RATELIMIT_BURST")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	err = v.Unmarshal(&cfg)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.public_base_url", "http://localhost:3000")
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.migrations_path", "file://migrations")
	v.SetDefault("db.mongo_database", "folio")
	v.SetDefault("redis.cache_ttl", 5*time.Minute)
	v.SetDefault("kafka.group_id", "folio-worker-group")
	v.SetDefault("auth.mode", AuthModeHS256)
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("preview.timeout", 10*time.Second)
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 10)
}
