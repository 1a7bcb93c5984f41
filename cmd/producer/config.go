package main

import "time"

type Config struct {
	KafkaBrokers         string        `env:"KAFKA_BROKERS,default=kafka:9092"`
	KafkaClientID        string        `env:"KAFKA_CLIENT_ID,default=cqrs-app"`
	Topic                string        `env:"TOPIC,default=orders-commands"`
	PublishTimeout       time.Duration `env:"PUBLISH_TIMEOUT,default=5s"`
	PublishMaxRetries    int           `env:"PUBLISH_MAX_RETRIES,default=3"`
	PublishRetryInterval time.Duration `env:"PUBLISH_RETRY_INTERVAL,default=100ms"`
	PublishMaxInterval   time.Duration `env:"PUBLISH_MAX_INTERVAL,default=2s"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=3000"`
}
