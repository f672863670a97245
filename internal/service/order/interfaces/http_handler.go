// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/response"
	"artshop/internal/pkg/validation"
	artdomain "artshop/internal/service/art/domain"
	artinterfaces "artshop/internal/service/art/interfaces"
	"artshop/internal/service/order/application"
	"artshop/internal/service/order/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const maxBodySize = 1 << 20

type OrderItemResponse struct {
	ID       uint                       `json:"id"`
	ArtID    uint                       `json:"artId"`
	Quantity int                        `json:"quantity"`
	Price    string                     `json:"price"`
	Art      *artinterfaces.ArtResponse `json:"art,omitempty"`
}

type OrderResponse struct {
	ID        uint                 `json:"id"`
	UserID    uint                 `json:"userId"`
	FullName  string               `json:"fullname"`
	Phone     string               `json:"phone"`
	Address   string               `json:"address"`
	Status    string               `json:"status"`
	Total     string               `json:"total"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Items     []*OrderItemResponse `json:"items"`
}

func toOrderResponse(o *domain.Order) *OrderResponse {
	items := make([]*OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, &OrderItemResponse{
			ID:       item.ID,
			ArtID:    item.ArtID,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Art:      artinterfaces.ToArtResponse(item.Art),
		})
	}
	return &OrderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		FullName:  o.FullName,
		Phone:     o.Phone,
		Address:   o.Address,
		Status:    o.Status,
		Total:     o.Total().StringFixed(2),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
		Items:     items,
	}
}

func toOrderResponses(orders []*domain.Order) []*OrderResponse {
	out := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

// OrderHandler 封装了订单服务的 HTTP 处理器，只做参数解析和错误映射
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /order", h.handleCreate)
	mux.HandleFunc("GET /order", h.handleFindMine)
	mux.HandleFunc("GET /order/all", h.handleFindAll)
	mux.HandleFunc("PATCH /order/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("DELETE /order/{id}", h.handleDelete)
	mux.HandleFunc("PATCH /order/{id}", h.handleUpdate)
	mux.HandleFunc("GET /order/{id}", h.handleGet)
	mux.HandleFunc("GET /order/admin/{id}", h.handleGetAdmin)
}

func extractContext(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req application.CreateOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	order, err := h.service.CreateOrder(extractContext(r), auth.FromRequest(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) handleFindMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.FindOrdersByUser(extractContext(r), auth.FromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleFindAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.FindAll(extractContext(r), auth.FromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	var req application.UpdateStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	order, err := h.service.UpdateOrderStatus(extractContext(r), auth.FromRequest(r), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	resp, err := h.service.DeleteOrder(extractContext(r), auth.FromRequest(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	var req application.UpdateOrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	order, err := h.service.UpdateOrder(extractContext(r), auth.FromRequest(r), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, false)
}

func (h *OrderHandler) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, true)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request, asAdmin bool) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	order, err := h.service.GetOrderByID(extractContext(r), auth.FromRequest(r), id, asAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toOrderResponse(order))
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, artdomain.ErrArtNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOrderNotPending),
		errors.Is(err, domain.ErrItemNotInOrder),
		errors.Is(err, validation.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}
	response.Error(w, r, status, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", validation.ErrInvalid)
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", validation.ErrInvalid)
	}
	return uint(id), nil
}
