package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort       string
	ServerHost       string
	TweetServicePort string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxRequestBody   int64

	// Database
	DatabaseDriver   string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaGroupID    string
	TweetInputTopic string
	TweetMatchTopic string
	TweetDLQTopic   string
	ResolutionTopic string

	// Publishing circuit breaker
	PublishBreakerFailures int
	PublishBreakerTimeout  time.Duration

	// Resolution
	ResolutionBlocking bool
	ResolutionStrategy string
	ResolutionLockTTL  time.Duration
	MatchingRulesPath  string
}

func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		ServerHost:       getEnv("SERVER_HOST", "0.0.0.0"),
		TweetServicePort: getEnv("TWEET_SERVICE_PORT", "8086"),
		ReadTimeout:      getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:     getDuration("WRITE_TIMEOUT", 5*time.Minute),
		MaxRequestBody:   int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		DatabaseDriver:   getEnv("DATABASE_DRIVER", "postgres"),
		SQLitePath:       getEnv("SQLITE_PATH", "restinspect.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "restinspect"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "restinspect"),
		PostgresDB:       getEnv("POSTGRES_DB", "restinspect"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaEnabled:    getBoolEnv("KAFKA_ENABLED", true),
		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "restinspect"),
		TweetInputTopic: getEnv("TWEET_INPUT_TOPIC", "tweets"),
		TweetMatchTopic: getEnv("TWEET_MATCH_TOPIC", "tweet-matches"),
		TweetDLQTopic:   getEnv("TWEET_DLQ_TOPIC", ""),
		ResolutionTopic: getEnv("RESOLUTION_TOPIC", "resolution-events"),

		PublishBreakerFailures: getIntEnv("PUBLISH_BREAKER_FAILURES", 5),
		PublishBreakerTimeout:  getDuration("PUBLISH_BREAKER_TIMEOUT", 30*time.Second),

		ResolutionBlocking: getBoolEnv("RESOLUTION_BLOCKING", false),
		ResolutionStrategy: getEnv("RESOLUTION_STRATEGY", "greedy"),
		ResolutionLockTTL:  getDuration("RESOLUTION_LOCK_TTL", 10*time.Minute),
		MatchingRulesPath:  getEnv("MATCHING_RULES_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
