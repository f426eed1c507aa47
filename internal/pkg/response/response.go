package response

import (
	"errors"
	"net/http"

	cErr "toolhub/internal/pkg/error"

	"github.com/gin-gonic/gin"
)

type Response struct {
	RequestID   string `json:"requestID"`
	Code        int    `json:"code"`
	Data        any    `json:"data"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Create 201，輸出由 response middleware 負責
func Create(c *gin.Context, data any) {
	c.Status(http.StatusCreated)
	stash(c, data, "Create Success")
}

func Success(c *gin.Context, data any) {
	stash(c, data, "Request Success")
}

// gin.H 內的 "message" 會被取出當作回應訊息
func stash(c *gin.Context, data any, message string) {
	if h, ok := data.(gin.H); ok {
		if s, ok := h["message"].(string); ok && s != "" {
			message = s
			delete(h, "message")
		}
	}
	c.Set("data", data)
	c.Set("message", message)
	c.Abort()
}

func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func Fail(c *gin.Context, requestID string, httpCode int, errorCode int, msg string, desc string) {
	c.JSON(httpCode, Response{
		RequestID:   requestID,
		Code:        errorCode,
		Message:     msg,
		Description: desc,
	})
	c.Abort()
}

// FailByErr 非 *cErr.Error 一律視為 500
func FailByErr(c *gin.Context, requestID string, err error) {
	var appErr *cErr.Error
	if errors.As(err, &appErr) {
		Fail(c, requestID, appErr.HttpCode(), appErr.ErrorCode(), appErr.Error(), appErr.ErrorDesc())
		return
	}
	Fail(c, requestID, http.StatusInternalServerError, cErr.INTERNAL_ERROR, err.Error(), "internal error")
}
