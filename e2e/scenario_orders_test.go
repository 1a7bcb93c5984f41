package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gvitanovic/cqrs/domain"
)

const projectionService = "cqrs.v1.OrderProjection"

type testOrdersSuite struct {
	BaseSuite
}

func TestOrdersSuite(t *testing.T) {
	suite.Run(t, &testOrdersSuite{})
}

func (s *testOrdersSuite) TestCreateThenQuery() {
	orderID := uuid.NewString()

	s.Run("Step 0: Projection is ready", func() {
		s.Eventually(func() bool {
			code, _ := s.Do("Wait for RUNNING", http.MethodGet, s.Config.QueryAddr+"/ready", "")
			return code == http.StatusOK
		}, s.timeout(), time.Second)

		s.WithHealth("Health reports SERVING", func(ctx context.Context, client healthpb.HealthClient) {
			resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: projectionService})
			s.Require().NoError(err)
			s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
		})
	})

	s.Run("Step 1: Submit CREATE_ORDER", func() {
		body := fmt.Sprintf(`{"orderId":%q,"product":"widget","quantity":10}`, orderID)
		code, resp := s.Do("Create order", http.MethodPost, s.Config.CommandAddr+"/create-order", body)
		s.Require().Equal(http.StatusOK, code)
		s.Require().Equal("Order command sent!", resp)
	})

	s.Run("Step 2: Order becomes visible", func() {
		var got domain.Order
		s.Eventually(func() bool {
			code, resp := s.Do("Query order", http.MethodGet, s.Config.QueryAddr+"/orders/"+orderID, "")
			return code == http.StatusOK && json.Unmarshal([]byte(resp), &got) == nil
		}, s.timeout(), 500*time.Millisecond)
		s.Require().Equal(domain.Order{Product: "widget", Quantity: 10}, got)

		code, resp := s.Do("Query all orders", http.MethodGet, s.Config.QueryAddr+"/orders", "")
		s.Require().Equal(http.StatusOK, code)
		var all map[string]domain.Order
		s.Require().NoError(json.Unmarshal([]byte(resp), &all))
		s.Require().Contains(all, orderID)
	})

	s.Run("Step 3: Unknown order is not found", func() {
		code, resp := s.Do("Query missing order", http.MethodGet, s.Config.QueryAddr+"/orders/"+uuid.NewString(), "")
		s.Require().Equal(http.StatusNotFound, code)
		s.Require().Equal("Order not found", resp)
	})

	s.Run("Step 4: Invalid command is rejected", func() {
		code, _ := s.Do("Create order without quantity", http.MethodPost, s.Config.CommandAddr+"/create-order", `{"orderId":"x","product":"widget"}`)
		s.Require().Equal(http.StatusBadRequest, code)
	})
}
