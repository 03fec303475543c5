package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Redis     RedisConfig
	Queue     QueueConfig
	CourtPass CourtPassConfig
	Log       LogConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	HTTPPort        int
	GRpcPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type RedisConfig struct {
	Addr            string
	ClientName      string
	Password        string
	DB              int
	MaxRetries      int
	PoolSize        int
	MinIdleConns    int
	ClosedRetention time.Duration
}

type QueueConfig struct {
	ProcessInterval         time.Duration
	ProcessConcurrency      int
	StaleSkipThreshold      int
	IdleWindow              time.Duration
	MinPlayersPerMatch      int
	ExhaustiveTeamThreshold int
	TurnSoonPositions       int
	DispatchBuffer          int
}

type KafkaConfig struct {
	Brokers              []string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type CourtPassConfig struct {
	Secret string
	Expiry time.Duration
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:        getEnvAsInt("SERVER_HTTP_PORT", 8080),
			GRpcPort:        getEnvAsInt("SERVER_GRPC_PORT", 50057),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "localhost:6379"),
			ClientName:      getEnv("REDIS_CLIENT_NAME", "courtside-queue"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvAsInt("REDIS_DB", 0),
			MaxRetries:      getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:        getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:    getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			ClosedRetention: getEnvAsDuration("REDIS_CLOSED_SESSION_RETENTION", 24*time.Hour),
		},
		Queue: QueueConfig{
			ProcessInterval:         getEnvAsDuration("QUEUE_PROCESS_INTERVAL", 5*time.Second),
			ProcessConcurrency:      getEnvAsInt("QUEUE_PROCESS_CONCURRENCY", 8),
			StaleSkipThreshold:      getEnvAsInt("QUEUE_STALE_SKIP_THRESHOLD", 3),
			IdleWindow:              getEnvAsDuration("QUEUE_IDLE_WINDOW", 15*time.Minute),
			MinPlayersPerMatch:      getEnvAsInt("QUEUE_MIN_PLAYERS_PER_MATCH", 1),
			ExhaustiveTeamThreshold: getEnvAsInt("QUEUE_EXHAUSTIVE_TEAM_THRESHOLD", 6),
			TurnSoonPositions:       getEnvAsInt("QUEUE_TURN_SOON_POSITIONS", 4),
			DispatchBuffer:          getEnvAsInt("QUEUE_DISPATCH_BUFFER", 1024),
		},
		CourtPass: CourtPassConfig{
			Secret: getEnv("COURT_PASS_SECRET", "court-pass-secret"),
			Expiry: getEnvAsDuration("COURT_PASS_EXPIRY", 90*time.Minute),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "court-queue-service"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for name, port := range map[string]int{"http": c.Server.HTTPPort, "grpc": c.Server.GRpcPort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s port: %d", name, port)
		}
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Queue.ProcessInterval <= 0 {
		return fmt.Errorf("queue process interval must be positive")
	}
	if c.Queue.StaleSkipThreshold < 1 {
		return fmt.Errorf("stale skip threshold must be at least 1, got %d", c.Queue.StaleSkipThreshold)
	}
	if c.Queue.MinPlayersPerMatch < 1 {
		return fmt.Errorf("min players per match must be at least 1, got %d", c.Queue.MinPlayersPerMatch)
	}
	if c.Queue.IdleWindow <= 0 {
		return fmt.Errorf("idle window must be positive")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	if c.CourtPass.Secret == "" || c.CourtPass.Secret == "court-pass-secret" {
		if c.Env == "production" {
			return fmt.Errorf("court pass secret must be set in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
