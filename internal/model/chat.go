// Package model defines the structs mapped to database tables.
package model

import (
	"time"
)

// Chat session status constants.
const (
	ChatSessionStatusActive   = "active"
	ChatSessionStatusArchived = "archived"
	ChatSessionStatusDeleted  = "deleted"
)

// Message sender constants.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
)

// Message kind constants. A `status` message is a degraded turn: it
// carries a service notice instead of model-generated content and is
// rendered differently by clients.
const (
	MessageKindText    = "text"
	MessageKindStatus  = "status"
	MessageKindSummary = "summary"
	MessageKindSystem  = "system"
)

// Conversation flow constants (conversation_contexts.current_flow).
const (
	FlowIdle                  = "idle"
	FlowEligibilityCheck      = "eligibility_check"
	FlowDocumentVerification  = "document_verification"
	FlowFormFilling           = "form_filling"
	FlowApplicationSubmission = "application_submission"
	FlowStatusInquiry         = "status_inquiry"
)

// IntentModelUnavailable is the sentinel intent category stored on
// degraded turns. Clients use it (together with the `status` kind and
// the absent confidence) to distinguish an outage notice from a real
// model answer.
const IntentModelUnavailable = "llm_unavailable"

// ChatSession is one citizen's conversation with the assistant.
// A session is owned by exactly one user; every read goes through an
// ownership check so foreign sessions behave as if they do not exist.
type ChatSession struct {
	ID int64 `gorm:"primaryKey" json:"-"`

	// SessionUID is the public identifier (UUID).
	SessionUID string `gorm:"size:64;uniqueIndex;not null" json:"session_id"`

	UserID int64 `gorm:"index;not null" json:"-"`

	Title string `gorm:"size:200;default:New Conversation" json:"title"`

	// Status: active / archived / deleted. Deleting a session archives
	// it; messages are never removed.
	Status string `gorm:"size:20;default:active;index" json:"status"`

	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`

	User *User `gorm:"foreignKey:UserID" json:"-"`

	// Messages in the session (one-to-many, ordered by creation).
	Messages []ChatMessage `gorm:"foreignKey:SessionID" json:"messages,omitempty"`

	// Context is the cached derived state (one-to-one).
	Context *ConversationContext `gorm:"foreignKey:SessionID" json:"context,omitempty"`
}

// TableName overrides GORM's default pluralisation.
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is a single message in a session. Messages are immutable
// once created and are only ever appended; for a given session they are
// totally ordered by (created_at, id) and that order is the only order
// presented.
type ChatMessage struct {
	ID int64 `gorm:"primaryKey" json:"-"`

	// MessageUID is the public identifier (UUID).
	MessageUID string `gorm:"size:64;uniqueIndex;not null" json:"message_id"`

	SessionID int64 `gorm:"index;not null" json:"-"`

	// Sender: user / assistant / system.
	Sender string `gorm:"size:20;not null" json:"sender"`

	// Kind: text / status / summary / system.
	Kind string `gorm:"size:20;default:text" json:"message_type"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Classifier fields, set on assistant messages only.
	// IntentCategory is the model's category, or IntentModelUnavailable
	// on a degraded turn. Confidence is nil when the model did not
	// produce a genuine classification; when present it is in [0,1].
	IntentCategory string   `gorm:"size:100" json:"intent_category,omitempty"`
	Confidence     *float64 `json:"confidence_score,omitempty"`

	// ExtractedEntities carries the structured part of the model reply
	// (intent, action plan, required documents, eligible schemes, next
	// steps). It holds everything the context derivation needs, so the
	// cached context is always reproducible by replaying messages.
	ExtractedEntities JSONMap `gorm:"type:text" json:"extracted_entities,omitempty"`

	// ActionRequired is true when the reply contains a non-empty action
	// plan the citizen is expected to follow up on.
	ActionRequired bool `gorm:"default:false" json:"action_required"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	Session *ChatSession `gorm:"foreignKey:SessionID" json:"-"`
}

// TableName overrides GORM's default pluralisation.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ConversationContext is the derived, mutable state of one session,
// rewritten after every assistant turn. It is a cache: replaying the
// session's messages in order must always reproduce it exactly.
type ConversationContext struct {
	ID        int64 `gorm:"primaryKey" json:"-"`
	SessionID int64 `gorm:"uniqueIndex;not null" json:"-"`

	// CurrentFlow is one of the Flow* constants.
	CurrentFlow string `gorm:"size:50;default:idle" json:"current_flow"`

	// UserIntent is the last recognised intent.
	UserIntent string `gorm:"size:100" json:"user_intent"`

	// ExtractedData accumulates key/value data across turns,
	// last-write-wins per key.
	ExtractedData JSONMap `gorm:"type:text" json:"extracted_data"`

	// PendingActions is the action plan of the most recent reply.
	PendingActions JSONList `gorm:"type:text" json:"pending_actions"`

	// ConversationSummary is replaced wholesale each turn, never merged.
	ConversationSummary string `gorm:"type:text" json:"conversation_summary"`

	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`

	Session *ChatSession `gorm:"foreignKey:SessionID" json:"-"`
}

// TableName overrides GORM's default pluralisation.
func (ConversationContext) TableName() string {
	return "conversation_contexts"
}
