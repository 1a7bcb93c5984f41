package workers

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/mocks"
	"github.com/gvitanovic/cqrs/projection"
	"github.com/gvitanovic/cqrs/repositories"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReporterWorker_LogsProgressUntilCancelled(t *testing.T) {
	req := require.New(t)
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))

	orders := projection.NewOrders(log, repositories.NewInMemoryOrderRepository())
	projector := NewProjector(log, func() (contract.Consumer, error) { return nil, nil }, orders)
	reporter := NewReporterWorker(log, orders, projector, time.Hour)

	// Given a reporter whose ticker never fires
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When the context ends
	err := reporter.Run(ctx)

	// Then a final snapshot is logged
	req.NoError(err)
	req.Contains(buf.String(), "Projection stats")
	req.Contains(buf.String(), "state=CONNECTING")
	req.Contains(buf.String(), "orders=0")
}

func TestReporterWorker_CountsWithoutScanningAndReportsProcess(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))

	// Given a store that only answers its size
	store := mocks.NewMockOrderStore(ctrl)
	store.EXPECT().Len().Return(3, nil).Times(1)

	orders := projection.NewOrders(log, store)
	projector := NewProjector(log, func() (contract.Consumer, error) { return nil, nil }, orders)
	reporter := NewReporterWorker(log, orders, projector, time.Hour)

	// When the reporter stops
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.NoError(reporter.Run(ctx))

	// Then the size and the process usage are logged
	req.Contains(buf.String(), "orders=3")
	req.Contains(buf.String(), "rss_mb=")
	req.Contains(buf.String(), "cpu_percent=")
}
