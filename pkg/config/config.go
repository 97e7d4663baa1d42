package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Milvus   MilvusConfig
	Neo4j    Neo4jConfig
	LLM      LLMConfig
	Catalog  CatalogConfig
	Chat     ChatConfig
	Scoring  ScoringConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type MilvusConfig struct {
	Enabled        bool
	Endpoint       string
	CollectionName string
	VectorDim      int
}

type Neo4jConfig struct {
	Enabled  bool
	URI      string
	Username string
	Password string
	Database string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type CatalogConfig struct {
	Endpoint   string
	RefreshSec int
	TimeoutSec int
}

type ChatConfig struct {
	TopN              int
	SessionTTLMinutes int
	MaxMessageLength  int
	RateLimitPerMin   int
}

// ScoringConfig exposes the personalization sub-score weights. The defaults
// sum to 1.0; tune with care.
type ScoringConfig struct {
	StyleWeight      float64
	ColorWeight      float64
	PriceWeight      float64
	BrandWeight      float64
	OccasionWeight   float64
	BehavioralWeight float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/clothify")

	viper.SetEnvPrefix("CLOTHIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/clothify.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("milvus.enabled", false)
	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "clothify_products")
	viper.SetDefault("milvus.vectorDim", 384)

	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.6)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("catalog.endpoint", "")
	viper.SetDefault("catalog.refreshSec", 300)
	viper.SetDefault("catalog.timeoutSec", 15)

	viper.SetDefault("chat.topN", 6)
	viper.SetDefault("chat.sessionTTLMinutes", 120)
	viper.SetDefault("chat.maxMessageLength", 2000)
	viper.SetDefault("chat.rateLimitPerMin", 60)

	viper.SetDefault("scoring.styleWeight", 0.25)
	viper.SetDefault("scoring.colorWeight", 0.20)
	viper.SetDefault("scoring.priceWeight", 0.20)
	viper.SetDefault("scoring.brandWeight", 0.15)
	viper.SetDefault("scoring.occasionWeight", 0.10)
	viper.SetDefault("scoring.behavioralWeight", 0.10)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
