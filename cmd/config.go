package main

import "time"

type Config struct {
	Partitions        int           `env:"PARTITIONS,default=4"`
	MaxPollRecords    int           `env:"MAX_POLL_RECORDS,default=100"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	PublishTimeout    time.Duration `env:"PUBLISH_TIMEOUT,default=5s"`
	PublishMaxRetries int           `env:"PUBLISH_MAX_RETRIES,default=3"`
	StoreBackend      string        `env:"STORE_BACKEND,default=memory"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/orders"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=localhost"`
	CommandPort       int           `env:"COMMAND_PORT,default=3000"`
	QueryPort         int           `env:"QUERY_PORT,default=4000"`
}
