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

// run starts both sides in one process over an in-memory event log.
// The gateways still only meet through the log, never through the store.
func run() error {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	store, closeStore, err := internal.OpenOrderStore(config.StoreBackend, config.BadgerFilepath, log)
	if err != nil {
		return err
	}
	defer closeStore()

	memLog := eventlog.NewMemoryLog(int32(config.Partitions)).WithMaxPollRecords(config.MaxPollRecords)
	commandService := services.NewCommandService(log, memLog, eventlog.DefaultTopic, services.PublishPolicy{
		Timeout:    config.PublishTimeout,
		MaxRetries: uint(max(config.PublishMaxRetries, 0)),
	})

	orders := projection.NewOrders(log, store)
	projector := workers.NewProjector(log, func() (contract.Consumer, error) {
		return memLog.Consumer(eventlog.DefaultTopic, eventlog.DefaultGroup), nil
	}, orders).
		OnStateChange(func(state workers.State) { orders.SetReady(state == workers.Running) })
	sup := workers.NewSupervisor(log, config.RestartInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sup.Add(projector).Run(ctx)
		return nil
	})
	group.Go(func() error {
		commandServer := server.NewCommandServer(log, commandService)
		return server.Serve(ctx, log, fmt.Sprintf("%s:%d", config.Host, config.CommandPort), commandServer.Routes())
	})
	group.Go(func() error {
		queryServer := server.NewQueryServer(log, services.NewQueryService(orders))
		return server.Serve(ctx, log, fmt.Sprintf("%s:%d", config.Host, config.QueryPort), queryServer.Routes())
	})

	if err = group.Wait(); err != nil {
		return err
	}
	log.Info("Program stopped cleanly")
	return nil
}
