// Package response 统一 HTTP 接口的 JSON 输出格式
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/validation"
)

// ErrorBody 是所有错误响应的结构
type ErrorBody struct {
	Message    string                 `json:"message"`
	Error      string                 `json:"error"`
	Violations []validation.Violation `json:"violations,omitempty"`
}

// JSON 以给定状态码输出 v
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error().Err(err).Msg("Failed to encode response")
	}
}

// Error 输出错误响应。5xx 不向客户端暴露内部错误细节。
func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := ErrorBody{Message: err.Error(), Error: http.StatusText(status)}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Violations = verr.Violations
	}
	if status >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		body.Message = "internal server error"
	}
	JSON(w, status, body)
}
