// Package validation 提供显式的请求校验，收集全部违规项后一次性返回。
package validation

import (
	"errors"
	"strings"
)

// ErrInvalid 是所有校验错误的根，接口层据此返回 400
var ErrInvalid = errors.New("invalid request")

// Violation 描述一个字段上的违规
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 聚合了一次校验中的所有违规项
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Validator 收集违规项
type Validator struct {
	violations []Violation
}

func New() *Validator {
	return &Validator{}
}

// Check 在 ok 为 false 时记录一条违规
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.violations = append(v.violations, Violation{Field: field, Message: message})
	}
}

// NotBlank 要求字符串去掉空白后非空
func (v *Validator) NotBlank(value, field string) {
	v.Check(strings.TrimSpace(value) != "", field, "should not be empty")
}

// Err 没有违规时返回 nil
func (v *Validator) Err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &Error{Violations: v.violations}
}
