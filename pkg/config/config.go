package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config konfigurasi aplikasi dari config.yaml dan environment variable.
type Config struct {
	APIPort    int
	APITimeout time.Duration

	LogLevel      int
	LogTimeFormat string

	StoreBackend     string
	StorePath        string
	StoreCompression string
	StoreShardLevel  int
	ShardCacheCost   int64
	LayersFile       string

	S3Bucket    string
	S3Region    string
	S3Prefix    string
	S3Endpoint  string
	MinioBucket string
	MinioURL    string
	MinioKey    string
	MinioSecret string
	MinioSSL    bool

	RedisAddr string
	CacheTTL  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_PORT", 6060)
	v.SetDefault("API_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", 0)
	v.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)
	v.SetDefault("STORE_BACKEND", "bolt")
	v.SetDefault("STORE_PATH", "geocoder.db")
	v.SetDefault("STORE_COMPRESSION", "zstd")
	v.SetDefault("STORE_SHARD_LEVEL", 2)
	v.SetDefault("SHARD_CACHE_COST", 256<<20)
	v.SetDefault("LAYERS_FILE", "layers.yaml")
	v.SetDefault("S3_REGION", "ap-southeast-1")
	v.SetDefault("MINIO_SSL", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("RATE_LIMIT_RPS", 50.0)
	v.SetDefault("RATE_LIMIT_BURST", 100)
}

// New baca config.yaml di working directory. file tidak wajib ada, environment variable selalu menang.
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var typeErr viper.ConfigFileNotFoundError
		if !errors.As(err, &typeErr) {
			return nil, err
		}
	}
	return FromViper(viper.GetViper()), nil
}

// FromViper isi Config dari instance viper.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{
		APIPort:          v.GetInt("API_PORT"),
		APITimeout:       v.GetDuration("API_TIMEOUT"),
		LogLevel:         v.GetInt("LOG_LEVEL"),
		LogTimeFormat:    v.GetString("LOG_TIME_FORMAT"),
		StoreBackend:     v.GetString("STORE_BACKEND"),
		StorePath:        v.GetString("STORE_PATH"),
		StoreCompression: v.GetString("STORE_COMPRESSION"),
		StoreShardLevel:  v.GetInt("STORE_SHARD_LEVEL"),
		ShardCacheCost:   v.GetInt64("SHARD_CACHE_COST"),
		LayersFile:       v.GetString("LAYERS_FILE"),
		S3Bucket:         v.GetString("S3_BUCKET"),
		S3Region:         v.GetString("S3_REGION"),
		S3Prefix:         v.GetString("S3_PREFIX"),
		S3Endpoint:       v.GetString("S3_ENDPOINT"),
		MinioBucket:      v.GetString("MINIO_BUCKET"),
		MinioURL:         v.GetString("MINIO_ENDPOINT"),
		MinioKey:         v.GetString("MINIO_ACCESS_KEY"),
		MinioSecret:      v.GetString("MINIO_SECRET_KEY"),
		MinioSSL:         v.GetBool("MINIO_SSL"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),
	}
}
