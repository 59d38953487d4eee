package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/middleware"
	"agsa-server/internal/service"
	"agsa-server/pkg/response"
)

// ChatHandler handles the conversation endpoints.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest is the body of POST /chat/sessions/:session_id/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// FormAssistanceRequest is the body of POST /chat/form-assistance.
type FormAssistanceRequest struct {
	SchemeName string `json:"scheme_name"`
}

// CreateSession starts a new conversation.
// @Router /api/v1/chat/sessions [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID := middleware.GetUserID(c)

	session, err := h.chatService.CreateSession(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Created(c, session)
}

// ListSessions returns the citizen's active conversations.
// @Router /api/v1/chat/sessions [get]
func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	sessions, err := h.chatService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, gin.H{"sessions": sessions, "total": len(sessions)})
}

// GetSession returns one conversation with messages and context.
// @Router /api/v1/chat/sessions/:session_id [get]
func (h *ChatHandler) GetSession(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionUID := c.Param("session_id")

	session, messages, cctx, err := h.chatService.GetSession(c.Request.Context(), userID, sessionUID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.ErrorWithCode(c, 404, response.CodeSessionNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, gin.H{
		"session":  session,
		"messages": messages,
		"context":  cctx,
	})
}

// ListMessages returns a conversation's messages in order.
// @Router /api/v1/chat/sessions/:session_id/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionUID := c.Param("session_id")

	messages, err := h.chatService.ListMessages(c.Request.Context(), userID, sessionUID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.ErrorWithCode(c, 404, response.CodeSessionNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, gin.H{"messages": messages, "total": len(messages)})
}

// SendMessage runs one conversation turn. A model outage still returns
// 200: the degraded turn is data, not a transport failure.
// @Router /api/v1/chat/sessions/:session_id/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionUID := c.Param("session_id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 400, response.CodeMessageInvalid, "invalid request: "+err.Error())
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), userID, sessionUID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrMessageTooLong):
			response.ErrorWithCode(c, 400, response.CodeMessageInvalid, err.Error())
		case errors.Is(err, service.ErrSessionNotFound):
			response.ErrorWithCode(c, 404, response.CodeSessionNotFound, err.Error())
		case errors.Is(err, service.ErrSessionArchived):
			response.ErrorWithCode(c, 409, response.CodeSessionArchived, err.Error())
		default:
			internalError(c, err)
		}
		return
	}
	response.Success(c, result)
}

// DeleteSession archives a conversation.
// @Router /api/v1/chat/sessions/:session_id [delete]
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sessionUID := c.Param("session_id")

	if err := h.chatService.DeleteSession(c.Request.Context(), userID, sessionUID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.ErrorWithCode(c, 404, response.CodeSessionNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, gin.H{"message": "session archived"})
}

// FormAssistance returns model-generated guidance for filling a scheme's
// application form. Unlike chat turns nothing is persisted, so a model
// failure surfaces as 503 instead of a degraded message.
// @Router /api/v1/chat/form-assistance [post]
func (h *ChatHandler) FormAssistance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req FormAssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	guide, err := h.chatService.FormAssistance(c.Request.Context(), userID, req.SchemeName)
	if err != nil {
		if errors.Is(err, service.ErrModelUnavailable) {
			response.ErrorWithCode(c, 503, response.CodeAssistantDown, "form assistance is temporarily unavailable")
			return
		}
		internalError(c, err)
		return
	}
	response.Success(c, guide)
}
