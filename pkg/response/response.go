// Package response provides the unified HTTP response envelope.
// Every API returns the same structure so clients can handle results
// uniformly.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope returned by every endpoint.
// code: business status code (0 means success)
// message: human-readable note
// data: payload, omitted when empty
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	// CorrelationID is set only on internal errors, so a citizen can
	// quote it to support without the response leaking any detail.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Business status codes.
const (
	CodeSuccess          = 0
	CodeBadRequest       = 1000
	CodeUnauthorized     = 1001
	CodeForbidden        = 1002
	CodeNotFound         = 1003
	CodeInternalError    = 1004
	CodeUserNotFound     = 1102
	CodeOTPInvalid       = 1111 // wrong code
	CodeOTPExpired       = 1112 // request expired or already used
	CodeOTPThrottled     = 1113 // resend requested too soon
	CodeOTPAttemptsOver  = 1114 // max attempts exceeded
	CodeDocumentNotFound = 1201
	CodeDocumentInvalid  = 1202 // unsupported or corrupt file
	CodeSchemeNotFound   = 1301
	CodeSessionNotFound  = 1401
	CodeMessageInvalid   = 1402 // empty or oversize chat message
	CodeSessionArchived  = 1403 // archived sessions reject new messages
	CodeAssistantDown    = 1404 // model provider unreachable or refusing
)

// Success writes a 200 response with the standard envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// NoContent writes a 204 response with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusForbidden, CodeForbidden, message)
}

// NotFound writes a 404 response.
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusNotFound, CodeNotFound, message)
}

// ErrorWithCode writes an error response with an explicit business code.
func ErrorWithCode(c *gin.Context, httpCode, bizCode int, message string) {
	c.JSON(httpCode, Response{
		Code:    bizCode,
		Message: message,
	})
}

// InternalError writes a 500 response. The message is always generic;
// the correlation id lets support find the logged detail.
func InternalError(c *gin.Context, correlationID string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:          CodeInternalError,
		Message:       "something went wrong, please try again later",
		CorrelationID: correlationID,
	})
}
