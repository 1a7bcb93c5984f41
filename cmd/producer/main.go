package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gvitanovic/cqrs/eventlog"
	"github.com/gvitanovic/cqrs/infrastructure/http/server"
	"github.com/gvitanovic/cqrs/internal"
	"github.com/gvitanovic/cqrs/services"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the command gateway: HTTP in, Kafka out. It holds no state.
func run() error {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	publisher, err := eventlog.NewKafkaPublisher(log, eventlog.KafkaConfig{
		Brokers:  internal.SplitList(config.KafkaBrokers),
		ClientID: config.KafkaClientID,
		Topic:    config.Topic,
	})
	if err != nil {
		return err
	}
	defer publisher.Close()
	log.Info("Producer connected", "brokers", config.KafkaBrokers, "topic", config.Topic)

	commandService := services.NewCommandService(log, publisher, config.Topic, services.PublishPolicy{
		Timeout:         config.PublishTimeout,
		MaxRetries:      uint(max(config.PublishMaxRetries, 0)),
		InitialInterval: config.PublishRetryInterval,
		MaxInterval:     config.PublishMaxInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	if err = server.Serve(ctx, log, address, server.NewCommandServer(log, commandService).Routes()); err != nil {
		return err
	}
	log.Info("Producer stopped cleanly")
	return nil
}
