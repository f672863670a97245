// Package auth 描述调用方身份。认证本身由上游网关完成，这里只负责传递和能力检查。
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"

	RoleAdmin = "admin"
)

var (
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrForbidden       = errors.New("caller lacks the required role")
)

// Caller 是一次调用的身份与角色，业务层无条件信任它
type Caller struct {
	UserID  uint
	IsAdmin bool
}

// Admin 构造一个管理员身份，主要用于后台任务和测试
func Admin() Caller {
	return Caller{IsAdmin: true}
}

// User 构造一个普通用户身份
func User(id uint) Caller {
	return Caller{UserID: id}
}

// RequireUser 要求调用方已登录
func (c Caller) RequireUser() error {
	if c.UserID == 0 {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin 要求调用方持有 admin 角色
func (c Caller) RequireAdmin() error {
	if !c.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// FromRequest 从网关注入的请求头中解析调用方。头不存在或格式错误时返回匿名调用方。
func FromRequest(r *http.Request) Caller {
	var c Caller
	if raw := r.Header.Get(HeaderUserID); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			c.UserID = uint(id)
		}
	}
	for _, role := range strings.Split(r.Header.Get(HeaderRole), ",") {
		if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
			c.IsAdmin = true
		}
	}
	return c
}
