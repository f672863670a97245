// internal/service/art/interfaces/http_handler.go
package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"artshop/internal/pkg/auth"
	"artshop/internal/pkg/response"
	"artshop/internal/pkg/validation"
	"artshop/internal/service/art/application"
	"artshop/internal/service/art/domain"
	"artshop/internal/service/art/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxUploadSize 限制单次上传（含表单字段）的大小
const maxUploadSize = 10 << 20

// ArtResponse 是艺术品的对外表示，价格固定两位小数
type ArtResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToArtResponse 供订单接口复用
func ToArtResponse(a *domain.Art) *ArtResponse {
	if a == nil {
		return nil
	}
	return &ArtResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Price:       a.Price.StringFixed(2),
		Quantity:    a.Quantity,
		Category:    string(a.Category),
		ImageURL:    a.ImageURL,
		InStock:     a.InStock,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ArtHandler 封装了商品目录的 HTTP 处理器
type ArtHandler struct {
	service   *application.ArtApplicationService
	uploadDir string
}

// NewArtHandler 创建处理器，uploadDir 下的文件通过 /uploads/ 对外提供
func NewArtHandler(service *application.ArtApplicationService, uploadDir string) *ArtHandler {
	return &ArtHandler{service: service, uploadDir: uploadDir}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *ArtHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /art", h.handleCreate)
	mux.HandleFunc("GET /art", h.handleList)
	mux.HandleFunc("GET /art/{id}", h.handleGet)
	mux.HandleFunc("PATCH /art/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /art/{id}", h.handleDelete)
	mux.Handle("GET "+infrastructure.UploadURLPrefix, http.StripPrefix(infrastructure.UploadURLPrefix, http.FileServer(http.Dir(h.uploadDir))))
}

func extractContext(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func (h *ArtHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := extractContext(r)

	req, upload, err := parseCreate(w, r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if upload != nil {
		defer upload.close()
	}

	art, err := h.service.Create(ctx, auth.FromRequest(r), req, upload.toUpload())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, ToArtResponse(art))
}

func (h *ArtHandler) handleList(w http.ResponseWriter, r *http.Request) {
	arts, err := h.service.List(extractContext(r), r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*ArtResponse, 0, len(arts))
	for _, a := range arts {
		out = append(out, ToArtResponse(a))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *ArtHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	art, err := h.service.Get(extractContext(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, ToArtResponse(art))
}

func (h *ArtHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := extractContext(r)
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}

	req, upload, err := parseUpdate(w, r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if upload != nil {
		defer upload.close()
	}

	art, err := h.service.Update(ctx, auth.FromRequest(r), id, req, upload.toUpload())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, ToArtResponse(art))
}

func (h *ArtHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.service.Delete(extractContext(r), auth.FromRequest(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Art with ID %d has been deleted successfully", id),
	})
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrArtNotFound):
		status = http.StatusNotFound
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, domain.ErrInvalidFilter):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrArtInUse):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}
	response.Error(w, r, status, err)
}

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", validation.ErrInvalid)
	}
	return uint(id), nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
