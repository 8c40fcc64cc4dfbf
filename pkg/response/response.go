// Package response 提供统一的 HTTP 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 返回带业务错误码的失败响应，HTTP 状态码为 500
func Error(c *gin.Context, message string, errorCode string) {
	ErrorWithStatus(c, http.StatusInternalServerError, message, errorCode)
}

// ErrorWithStatus 返回指定 HTTP 状态码的失败响应
func ErrorWithStatus(c *gin.Context, status int, message string, errorCode string) {
	c.JSON(status, Response{
		Code:      status,
		Message:   message,
		ErrorCode: errorCode,
	})
}
