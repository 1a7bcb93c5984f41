package main

import "time"

type Config struct {
	KafkaBrokers    string        `env:"KAFKA_BROKERS,default=kafka:9092"`
	KafkaClientID   string        `env:"KAFKA_CLIENT_ID,default=cqrs-app"`
	Topic           string        `env:"TOPIC,default=orders-commands"`
	ConsumerGroup   string        `env:"CONSUMER_GROUP,default=cqrs-group"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s"`
	StoreBackend    string        `env:"STORE_BACKEND,default=memory"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=./data/orders"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=4000"`
	HealthPort      int           `env:"HEALTH_PORT,default=4001"`
}
