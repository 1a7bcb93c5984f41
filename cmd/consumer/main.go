package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/eventlog"
	grpcserver "github.com/gvitanovic/cqrs/infrastructure/grpc/server"
	"github.com/gvitanovic/cqrs/infrastructure/http/server"
	"github.com/gvitanovic/cqrs/internal"
	"github.com/gvitanovic/cqrs/projection"
	"github.com/gvitanovic/cqrs/runtime/workers"
	"github.com/gvitanovic/cqrs/services"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the projection engine and the query gateway.
// The projector is the only writer of the store, HTTP handlers only read it.
func run() error {
	// 1. Configuration & Logger
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Read model store
	store, closeStore, err := internal.OpenOrderStore(config.StoreBackend, config.BadgerFilepath, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Projection & subscription
	orders := projection.NewOrders(log, store)
	health := grpcserver.NewHealthServer(log)
	kafkaConfig := eventlog.KafkaConfig{
		Brokers:  internal.SplitList(config.KafkaBrokers),
		ClientID: config.KafkaClientID,
		Topic:    config.Topic,
		Group:    config.ConsumerGroup,
	}
	projector := workers.NewProjector(log, func() (contract.Consumer, error) {
		consumer, err := eventlog.NewKafkaConsumer(log, kafkaConfig)
		if err != nil {
			return nil, err
		}
		return consumer, nil
	}, orders).
		OnStateChange(func(state workers.State) { orders.SetReady(state == workers.Running) }).
		OnStateChange(health.OnStateChange)
	sup := workers.NewSupervisor(log, config.RestartInterval)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Run everything until a signal or the first server error
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sup.Add(projector, workers.NewReporterWorker(log, orders, projector, config.StatsInterval)).Run(ctx)
		return nil
	})
	group.Go(func() error {
		return health.Serve(ctx, fmt.Sprintf("%s:%d", config.Host, config.HealthPort))
	})
	group.Go(func() error {
		queryServer := server.NewQueryServer(log, services.NewQueryService(orders))
		return server.Serve(ctx, log, fmt.Sprintf("%s:%d", config.Host, config.Port), queryServer.Routes())
	})

	if err = group.Wait(); err != nil {
		return err
	}
	log.Info("Consumer stopped cleanly", "applied", orders.Applied(), "skipped", orders.Skipped())
	return nil
}
