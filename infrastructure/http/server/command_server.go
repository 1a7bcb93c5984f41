package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gvitanovic/cqrs/domain"
	cqrserrors "github.com/gvitanovic/cqrs/errors"
	"github.com/gvitanovic/cqrs/services"
)

const maxBodyBytes = 1 << 20

// CommandServer exposes the command gateway.
// A 200 means the event is durable in the log, not that it is queryable.
type CommandServer struct {
	log     *slog.Logger
	service services.ICommandService
}

func NewCommandServer(log *slog.Logger, service services.ICommandService) *CommandServer {
	return &CommandServer{log: log, service: service}
}

func (s *CommandServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create-order", s.createOrder)
	mux.HandleFunc("GET /health", health)
	return mux
}

func (s *CommandServer) createOrder(w http.ResponseWriter, r *http.Request) {
	var cmd domain.CreateOrderCommand
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&cmd); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid order command: "+err.Error())
		return
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeText(w, http.StatusBadRequest, "Invalid order command: unexpected data after JSON body")
		return
	}

	ack, err := s.service.Submit(r.Context(), cmd)
	switch {
	case errors.Is(err, cqrserrors.ErrValidation), errors.Is(err, cqrserrors.ErrUnknownCommand):
		writeText(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeText(w, http.StatusInternalServerError, "Order command could not be sent")
		return
	}

	s.log.Info("Order command sent", "order_id", ack.OrderID, "event_id", ack.EventID)
	writeText(w, http.StatusOK, "Order command sent!")
}
