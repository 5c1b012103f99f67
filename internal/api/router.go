// Package api exposes the command surface over HTTP. The layer is a thin
// boundary: decode, validate, dispatch to a command handler, map the error
// taxonomy to a status code.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"order-fulfillment-command/internal/commands"
	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/handlers"
	"order-fulfillment-command/shared/config"
	"order-fulfillment-command/shared/httpx"
	"order-fulfillment-command/shared/logx"
	"order-fulfillment-command/shared/metricsx"
)

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Env     string `json:"env,omitempty"`
	Version string `json:"version,omitempty"`
}

type Server struct {
	orders        *handlers.OrderHandler
	inventory     *handlers.InventoryHandler
	logger        logx.Logger
	cfg           config.Config
	version       string
	readyProblems []config.Problem
	readyCheck    func(context.Context) error
}

func NewServer(orders *handlers.OrderHandler, inventory *handlers.InventoryHandler, logger logx.Logger, cfg config.Config, version string, readyProblems []config.Problem, readyCheck func(context.Context) error) *Server {
	return &Server{
		orders:        orders,
		inventory:     inventory,
		logger:        logger,
		cfg:           cfg,
		version:       version,
		readyProblems: readyProblems,
		readyCheck:    readyCheck,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metricsx.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", s.handleCreateOrder)
		r.Put("/orders/{orderID}/status", s.handleUpdateOrderStatus)
		r.Delete("/orders/{orderID}", s.handleCancelOrder)
		r.Put("/inventory/{productID}", s.handleUpdateInventory)
		r.Post("/inventory/{productID}/allocate", s.handleAllocateInventory)
		r.Post("/inventory/{productID}/return", s.handleReturnInventory)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(w, req, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Service: s.cfg.ServiceName,
		Env:     s.cfg.Env,
		Version: s.version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if len(s.readyProblems) > 0 {
		httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION",
			"service not ready: invalid configuration",
			map[string]any{"problems": s.readyProblems})
		return
	}
	if s.readyCheck != nil {
		if err := s.readyCheck(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "readiness_check_failed", "dependency check failed",
				slog.String("error", err.Error()))
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION",
				"service not ready: dependency unavailable",
				map[string]any{"problem": err.Error()})
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  "ready",
		Service: s.cfg.ServiceName,
		Env:     s.cfg.Env,
		Version: s.version,
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	items, problems := req.validate()
	if len(problems) > 0 {
		writeValidationError(w, r, problems)
		return
	}

	order, err := s.orders.CreateOrder(r.Context(), commands.CreateOrder{
		CustomerID:      req.CustomerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress.toDomain(),
		BillingAddress:  req.BillingAddress.toDomain(),
		TotalCost:       req.totalCost(items),
		IssuedAt:        req.IssuedAt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createOrderResponse{Success: true, OrderID: order.AggregateID()})
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeValidationError(w, r, []fieldError{{Field: "status", Message: err.Error()}})
		return
	}

	err = s.orders.UpdateOrderStatus(r.Context(), commands.UpdateOrderStatus{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  status,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	err := s.orders.CancelOrder(r.Context(), commands.CancelOrder{OrderID: chi.URLParam(r, "orderID")})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	var req updateInventoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.inventory.UpdateInventory(r.Context(), commands.UpdateInventory{
		ProductID: chi.URLParam(r, "productID"),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, inventoryResponse{
		Success:           true,
		ProductID:         item.ProductID,
		AvailableQuantity: item.AvailableQuantity,
		AllocatedQuantity: item.AllocatedQuantity,
	})
}

func (s *Server) handleAllocateInventory(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeValidationError(w, r, problems)
		return
	}
	err := s.inventory.AllocateInventory(r.Context(), commands.AllocateInventory{
		ProductID: chi.URLParam(r, "productID"),
		OrderID:   req.OrderID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleReturnInventory(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeValidationError(w, r, problems)
		return
	}
	err := s.inventory.ReturnInventory(r.Context(), commands.ReturnInventory{
		ProductID: chi.URLParam(r, "productID"),
		OrderID:   req.OrderID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request body", nil)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, r *http.Request, problems []fieldError) {
	httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "validation failed",
		map[string]any{"fields": problems})
}
