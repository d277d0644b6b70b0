package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything cmd/server needs from the environment.
type Config struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	RedisStream   string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
// Empty Postgres/Redis/Kafka settings mean "run without that backend": the
// registry falls back to the in-memory store and the corresponding
// notification sink is simply not wired.
func FromEnv() Config {
	addr := os.Getenv("DOMUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	stream := os.Getenv("DOMUS_REDIS_STREAM")
	if stream == "" {
		stream = "domus:events"
	}

	topic := os.Getenv("DOMUS_KAFKA_TOPIC")
	if topic == "" {
		topic = "domus.apartment-events"
	}

	var brokers []string
	if raw := os.Getenv("DOMUS_KAFKA_BROKERS"); raw != "" {
		for _, broker := range strings.Split(raw, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	jwtSigningKey := os.Getenv("DOMUS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:            addr,
		PostgresURL:     os.Getenv("DOMUS_POSTGRES_URL"),
		RedisURL:        os.Getenv("DOMUS_REDIS_URL"),
		RedisStream:     stream,
		KafkaBrokers:    brokers,
		KafkaTopic:      topic,
		JWTSigningKey:   jwtSigningKey,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}
