package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gvitanovic/cqrs/domain"
	cqrserrors "github.com/gvitanovic/cqrs/errors"
	"github.com/gvitanovic/cqrs/services"
)

// QueryServer exposes the read model. It never touches the log.
type QueryServer struct {
	log     *slog.Logger
	service services.IQueryService
}

func NewQueryServer(log *slog.Logger, service services.IQueryService) *QueryServer {
	return &QueryServer{log: log, service: service}
}

func (s *QueryServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{orderId}", s.getOrder)
	mux.HandleFunc("GET /orders", s.getOrders)
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /ready", s.ready)
	return mux
}

func (s *QueryServer) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.service.Get(domain.OrderID(r.PathValue("orderId")))
	switch {
	case errors.Is(err, cqrserrors.ErrNotFound):
		writeText(w, http.StatusNotFound, "Order not found")
		return
	case err != nil:
		s.log.Error("Reading order failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Order could not be read")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// getOrders answers 500 on an empty read model, clients cannot tell it
// from a projection still warming up; /ready says which.
func (s *QueryServer) getOrders(w http.ResponseWriter, _ *http.Request) {
	orders, err := s.service.GetAll()
	switch {
	case errors.Is(err, cqrserrors.ErrEmpty):
		writeText(w, http.StatusInternalServerError, "Orders data is unavailable.")
		return
	case err != nil:
		s.log.Error("Reading orders failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Orders data is unavailable.")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *QueryServer) ready(w http.ResponseWriter, _ *http.Request) {
	if !s.service.Ready() {
		writeText(w, http.StatusServiceUnavailable, "CONNECTING")
		return
	}
	writeText(w, http.StatusOK, "READY")
}
