// Package repository provides the data access layer.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"agsa-server/internal/model"
)

// ChatRepository handles all database operations for chat sessions,
// messages and conversation contexts.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a ChatRepository.
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession inserts a session together with its empty context and
// the seeded welcome message, in one transaction: a session must never
// exist without a context row.
func (r *ChatRepository) CreateSession(ctx context.Context, session *model.ChatSession, cctx *model.ConversationContext, welcome *model.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		cctx.SessionID = session.ID
		if err := tx.Create(cctx).Error; err != nil {
			return err
		}
		if welcome != nil {
			welcome.SessionID = session.ID
			if err := tx.Create(welcome).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSessionByUID returns a session by its public id, or nil.
// Ownership is checked by the service layer.
func (r *ChatRepository) GetSessionByUID(ctx context.Context, sessionUID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).Where("session_uid = ?", sessionUID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListSessionsByUser returns the user's active sessions, most recent
// activity first.
func (r *ChatRepository) ListSessionsByUser(ctx context.Context, userID int64) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.ChatSessionStatusActive).
		Order("last_activity DESC").
		Find(&sessions).Error
	return sessions, err
}

// ArchiveSession marks a session archived. Messages stay untouched.
func (r *ChatRepository) ArchiveSession(ctx context.Context, sessionID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", sessionID).
		Update("status", model.ChatSessionStatusArchived).Error
}

// CreateMessage appends a message and bumps the session's
// last-activity timestamp.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", msg.SessionID).
			Update("last_activity", time.Now()).Error
	})
}

// SaveAssistantTurn persists the assistant message and the rewritten
// context atomically. The two must never diverge: a reader either sees
// both the new message and the context derived from it, or neither.
func (r *ChatRepository) SaveAssistantTurn(ctx context.Context, msg *model.ChatMessage, cctx *model.ConversationContext) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := tx.Save(cctx).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", msg.SessionID).
			Update("last_activity", time.Now()).Error
	})
}

// ListMessages returns a session's messages in creation order. The id
// tiebreak keeps the order total when timestamps collide.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID int64) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// GetContext returns a session's cached context, or nil.
func (r *ChatRepository) GetContext(ctx context.Context, sessionID int64) (*model.ConversationContext, error) {
	var cctx model.ConversationContext
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&cctx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cctx, nil
}
