package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/domain/event"
	"github.com/gvitanovic/cqrs/mocks"
	"github.com/gvitanovic/cqrs/projection"
	"github.com/gvitanovic/cqrs/repositories"
	"github.com/gvitanovic/cqrs/services"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var policy = services.PublishPolicy{Timeout: 50 * time.Millisecond, InitialInterval: time.Millisecond}

func do(t *testing.T, handler http.Handler, method, path, body string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	bytes, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(bytes)
}

func TestCommandServer_CreateOrder(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	log := logs.GetLoggerFromLevel(slog.LevelError)
	handler := NewCommandServer(log, services.NewCommandService(log, publisher, "orders-commands", policy)).Routes()

	code, body := do(t, handler, http.MethodPost, "/create-order", `{"orderId":"o1","product":"widget","quantity":10}`+"\n")
	req.Equal(http.StatusOK, code)
	req.Equal("Order command sent!", body)
}

func TestCommandServer_BadRequests(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	log := logs.GetLoggerFromLevel(slog.LevelError)
	handler := NewCommandServer(log, services.NewCommandService(log, publisher, "orders-commands", policy)).Routes()

	code, _ := do(t, handler, http.MethodPost, "/create-order", `{"orderId":`)
	req.Equal(http.StatusBadRequest, code)

	code, _ = do(t, handler, http.MethodPost, "/create-order", `{"orderId":"o1","product":"widget"}`)
	req.Equal(http.StatusBadRequest, code)

	code, body := do(t, handler, http.MethodPost, "/create-order", `{"orderId":"o1","product":"widget","quantity":1}garbage`)
	req.Equal(http.StatusBadRequest, code)
	req.Contains(body, "unexpected data after JSON body")

	code, _ = do(t, handler, http.MethodPost, "/create-order", `{"orderId":"o1","product":"widget","quantity":1}{"orderId":"o2"}`)
	req.Equal(http.StatusBadRequest, code)

	code, _ = do(t, handler, http.MethodGet, "/create-order", "")
	req.Equal(http.StatusMethodNotAllowed, code)
}

func TestCommandServer_PublishFailed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	publisher := mocks.NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(fmt.Errorf("no brokers")).Times(1)

	log := logs.GetLoggerFromLevel(slog.LevelError)
	handler := NewCommandServer(log, services.NewCommandService(log, publisher, "orders-commands", policy)).Routes()

	code, _ := do(t, handler, http.MethodPost, "/create-order", `{"orderId":"o1","product":"widget","quantity":1}`)
	req.Equal(http.StatusInternalServerError, code)
}

func TestHealth_AlwaysOK(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	handlers := []http.Handler{
		NewCommandServer(log, nil).Routes(),
		NewQueryServer(log, nil).Routes(),
	}
	for _, handler := range handlers {
		code, body := do(t, handler, http.MethodGet, "/health", "")
		req.Equal(http.StatusOK, code)
		req.Equal("OK", body)
	}
}

func consume(t *testing.T, orders *projection.Orders, evt event.Event) {
	t.Helper()
	bytes, err := event.Encode(evt)
	require.NoError(t, err)
	require.NoError(t, orders.Consume(context.Background(), contract.Record{Key: evt.Key(), Value: bytes}))
}

func TestQueryServer_Scenario(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	orders := projection.NewOrders(log, repositories.NewInMemoryOrderRepository())
	handler := NewQueryServer(log, services.NewQueryService(orders)).Routes()

	// Given a fresh projection
	code, body := do(t, handler, http.MethodGet, "/orders", "")
	req.Equal(http.StatusInternalServerError, code)
	req.Equal("Orders data is unavailable.", body)
	code, _ = do(t, handler, http.MethodGet, "/ready", "")
	req.Equal(http.StatusServiceUnavailable, code)

	// When one event is consumed
	orders.SetReady(true)
	consume(t, orders, event.Event{Type: domain.CreateOrder, OrderID: "o1", Product: "widget", Quantity: 10})

	// Then the order is served
	code, body = do(t, handler, http.MethodGet, "/orders/o1", "")
	req.Equal(http.StatusOK, code)
	req.JSONEq(`{"product":"widget","quantity":10}`, body)

	code, body = do(t, handler, http.MethodGet, "/orders/nope", "")
	req.Equal(http.StatusNotFound, code)
	req.Equal("Order not found", body)

	code, body = do(t, handler, http.MethodGet, "/orders", "")
	req.Equal(http.StatusOK, code)
	var all map[string]domain.Order
	req.NoError(json.Unmarshal([]byte(body), &all))
	req.Equal(map[string]domain.Order{"o1": {Product: "widget", Quantity: 10}}, all)

	code, body = do(t, handler, http.MethodGet, "/ready", "")
	req.Equal(http.StatusOK, code)
	req.Equal("READY", body)
}
