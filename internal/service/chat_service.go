// Package service implements the business logic layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"agsa-server/internal/config"
	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

// MaxMessageLength is the upper bound on a single citizen message, in
// characters. Longer input is refused before any model call.
const MaxMessageLength = 8000

// Conversation errors returned to the handler layer.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionArchived = errors.New("session is archived")
	ErrEmptyMessage    = errors.New("message must not be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
)

// welcomeMessage seeds every new session. It is a plain assistant text
// message with no classification fields.
const welcomeMessage = "Namaste! I am AGSA, your government services assistant. " +
	"I can help you discover welfare schemes, check your eligibility and prepare applications. " +
	"How can I help you today?"

// unavailableNotice is the content of a degraded turn. It is a service
// notice, never model output, and names no scheme or document.
const unavailableNotice = "The assistant is temporarily unavailable. " +
	"Your message has been saved; please try again in a moment."

// ModelGateway is the seam between the conversation manager and the
// model provider. *AIService is the production implementation.
type ModelGateway interface {
	Generate(ctx context.Context, userMessage, contextBlock string) (*ModelReply, error)
	FormAssistance(ctx context.Context, schemeName, profileBlock string) (*FormGuide, error)
}

// ChatService manages conversations.
// Owns conversation lifecycle, message ordering and the derived
// conversation context.
type ChatService struct {
	chatRepo *repository.ChatRepository
	userRepo *repository.UserRepository
	gateway  ModelGateway
	config   *config.Config

	// Per-session locks serialise concurrent sends to one session so
	// the (message, context) pair is rewritten one turn at a time.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService creates a ChatService.
func NewChatService(chatRepo *repository.ChatRepository, userRepo *repository.UserRepository, gateway ModelGateway, cfg *config.Config) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		gateway:  gateway,
		config:   cfg,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *ChatService) sessionLock(sessionUID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionUID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionUID] = l
	}
	return l
}

// SessionResponse is the public view of a session.
type SessionResponse struct {
	SessionID    string `json:"session_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
}

// MessageResponse is the public view of a message.
type MessageResponse struct {
	MessageID         string                 `json:"message_id"`
	Sender            string                 `json:"sender"`
	MessageType       string                 `json:"message_type"`
	Content           string                 `json:"content"`
	IntentCategory    string                 `json:"intent_category,omitempty"`
	Confidence        *float64               `json:"confidence_score,omitempty"`
	ExtractedEntities map[string]interface{} `json:"extracted_entities,omitempty"`
	ActionRequired    bool                   `json:"action_required"`
	CreatedAt         string                 `json:"created_at"`
}

// ContextResponse is the public view of a conversation context.
type ContextResponse struct {
	CurrentFlow         string                 `json:"current_flow"`
	UserIntent          string                 `json:"user_intent"`
	ExtractedData       map[string]interface{} `json:"extracted_data"`
	PendingActions      []string               `json:"pending_actions"`
	ConversationSummary string                 `json:"conversation_summary"`
	LastUpdated         string                 `json:"last_updated"`
}

// SendMessageResponse is the full result of one turn.
type SendMessageResponse struct {
	SessionID        string           `json:"session_id"`
	UserMessage      *MessageResponse `json:"user_message"`
	AssistantMessage *MessageResponse `json:"assistant_message"`
	Context          *ContextResponse `json:"context"`
}

func toSessionResponse(session *model.ChatSession) *SessionResponse {
	return &SessionResponse{
		SessionID:    session.SessionUID,
		Title:        session.Title,
		Status:       session.Status,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
		LastActivity: session.LastActivity.Format(time.RFC3339),
	}
}

func toMessageResponse(msg *model.ChatMessage) *MessageResponse {
	return &MessageResponse{
		MessageID:         msg.MessageUID,
		Sender:            msg.Sender,
		MessageType:       msg.Kind,
		Content:           msg.Content,
		IntentCategory:    msg.IntentCategory,
		Confidence:        msg.Confidence,
		ExtractedEntities: msg.ExtractedEntities,
		ActionRequired:    msg.ActionRequired,
		CreatedAt:         msg.CreatedAt.Format(time.RFC3339),
	}
}

func toContextResponse(cctx *model.ConversationContext) *ContextResponse {
	resp := &ContextResponse{
		CurrentFlow:         cctx.CurrentFlow,
		UserIntent:          cctx.UserIntent,
		ExtractedData:       cctx.ExtractedData,
		PendingActions:      cctx.PendingActions,
		ConversationSummary: cctx.ConversationSummary,
		LastUpdated:         cctx.LastUpdated.Format(time.RFC3339),
	}
	if resp.ExtractedData == nil {
		resp.ExtractedData = map[string]interface{}{}
	}
	if resp.PendingActions == nil {
		resp.PendingActions = []string{}
	}
	return resp
}

// CreateSession starts a new conversation.
// Every session starts with an empty context and a seeded welcome
// message from the assistant.
func (s *ChatService) CreateSession(ctx context.Context, userID int64) (*SessionResponse, error) {
	now := time.Now()
	session := &model.ChatSession{
		SessionUID:   util.GenerateUUID(),
		UserID:       userID,
		Title:        "New Conversation",
		Status:       model.ChatSessionStatusActive,
		LastActivity: now,
	}
	cctx := &model.ConversationContext{
		CurrentFlow:    model.FlowIdle,
		ExtractedData:  model.JSONMap{},
		PendingActions: model.JSONList{},
	}
	welcome := &model.ChatMessage{
		MessageUID: util.GenerateUUID(),
		Sender:     model.SenderAssistant,
		Kind:       model.MessageKindText,
		Content:    welcomeMessage,
	}

	if err := s.chatRepo.CreateSession(ctx, session, cctx, welcome); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ListSessions returns the user's active sessions.
func (s *ChatService) ListSessions(ctx context.Context, userID int64) ([]*SessionResponse, error) {
	sessions, err := s.chatRepo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	return result, nil
}

// getOwnedSession loads a session and enforces ownership. A session
// owned by someone else is reported exactly like a missing one.
func (s *ChatService) getOwnedSession(ctx context.Context, userID int64, sessionUID string) (*model.ChatSession, error) {
	session, err := s.chatRepo.GetSessionByUID(ctx, sessionUID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID || session.Status == model.ChatSessionStatusDeleted {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetSession returns a session with its messages and context.
func (s *ChatService) GetSession(ctx context.Context, userID int64, sessionUID string) (*SessionResponse, []*MessageResponse, *ContextResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionUID)
	if err != nil {
		return nil, nil, nil, err
	}

	messages, err := s.chatRepo.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	cctx, err := s.chatRepo.GetContext(ctx, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	msgResps := make([]*MessageResponse, 0, len(messages))
	for i := range messages {
		msgResps = append(msgResps, toMessageResponse(&messages[i]))
	}
	var ctxResp *ContextResponse
	if cctx != nil {
		ctxResp = toContextResponse(cctx)
	}
	return toSessionResponse(session), msgResps, ctxResp, nil
}

// ListMessages returns a session's messages in creation order.
func (s *ChatService) ListMessages(ctx context.Context, userID int64, sessionUID string) ([]*MessageResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionUID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chatRepo.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	result := make([]*MessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, toMessageResponse(&messages[i]))
	}
	return result, nil
}

// DeleteSession archives a session. Messages are kept and the session
// stays readable, but it no longer accepts new messages.
func (s *ChatService) DeleteSession(ctx context.Context, userID int64, sessionUID string) error {
	session, err := s.getOwnedSession(ctx, userID, sessionUID)
	if err != nil {
		return err
	}
	if err := s.chatRepo.ArchiveSession(ctx, session.ID); err != nil {
		return err
	}
	s.releaseSessionLock(session.SessionUID)
	return nil
}

// releaseSessionLock drops the per-session mutex once a session is
// archived. Archived sessions reject new turns, so without eviction the
// map would hold one entry per session ever touched for the life of the
// process.
func (s *ChatService) releaseSessionLock(sessionUID string) {
	s.mu.Lock()
	delete(s.locks, sessionUID)
	s.mu.Unlock()
}

// SendMessage runs one full turn: validate input, persist the user
// message, call the model, persist the assistant message and rewrite
// the context.
//
// Validation happens before anything is persisted or sent to the model.
// Once the user message is stored the turn always completes: a model
// failure produces a persisted `status` message instead of an answer,
// and the caller disconnecting does not abandon the in-flight turn.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, sessionUID, content string) (*SendMessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	session, err := s.getOwnedSession(ctx, userID, sessionUID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.ChatSessionStatusActive {
		return nil, ErrSessionArchived
	}

	lock := s.sessionLock(session.SessionUID)
	lock.Lock()
	defer lock.Unlock()

	userMsg := &model.ChatMessage{
		MessageUID: util.GenerateUUID(),
		SessionID:  session.ID,
		Sender:     model.SenderUser,
		Kind:       model.MessageKindText,
		Content:    content,
	}
	if err := s.chatRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	cctx, err := s.chatRepo.GetContext(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if cctx == nil {
		cctx = &model.ConversationContext{
			SessionID:      session.ID,
			CurrentFlow:    model.FlowIdle,
			ExtractedData:  model.JSONMap{},
			PendingActions: model.JSONList{},
		}
	}

	// Detach from the caller's cancellation: a client disconnect must
	// not leave the turn half-done. The model call still has its own
	// deadline.
	turnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.AI.Timeout+2*time.Second)
	defer cancel()

	assistantMsg := s.assistantTurn(turnCtx, session, content, cctx)
	applyTurn(cctx, assistantMsg)

	if err := s.chatRepo.SaveAssistantTurn(turnCtx, assistantMsg, cctx); err != nil {
		return nil, err
	}

	return &SendMessageResponse{
		SessionID:        session.SessionUID,
		UserMessage:      toMessageResponse(userMsg),
		AssistantMessage: toMessageResponse(assistantMsg),
		Context:          toContextResponse(cctx),
	}, nil
}

// assistantTurn calls the model and shapes the resulting assistant
// message. It never returns an error: a gateway failure becomes a
// degraded `status` message carrying the failure reason and nothing
// else, so no content is ever fabricated on the model's behalf.
func (s *ChatService) assistantTurn(ctx context.Context, session *model.ChatSession, content string, cctx *model.ConversationContext) *model.ChatMessage {
	contextBlock := s.buildContextBlock(ctx, session.UserID, cctx)

	reply, err := s.gateway.Generate(ctx, content, contextBlock)
	if err != nil {
		return &model.ChatMessage{
			MessageUID:     util.GenerateUUID(),
			SessionID:      session.ID,
			Sender:         model.SenderAssistant,
			Kind:           model.MessageKindStatus,
			Content:        unavailableNotice,
			IntentCategory: model.IntentModelUnavailable,
			Confidence:     nil,
			ExtractedEntities: model.JSONMap{
				"failure_reason": failureReason(err),
			},
		}
	}

	entities := model.JSONMap{}
	if reply.Intent != "" {
		entities["intent"] = reply.Intent
	}
	if len(reply.ActionPlan) > 0 {
		entities["action_plan"] = toInterfaceList(reply.ActionPlan)
	}
	if len(reply.RequiredDocuments) > 0 {
		entities["required_documents"] = toInterfaceList(reply.RequiredDocuments)
	}
	if len(reply.EligibleSchemes) > 0 {
		entities["eligible_schemes"] = toInterfaceList(reply.EligibleSchemes)
	}
	if len(reply.NextSteps) > 0 {
		entities["next_steps"] = toInterfaceList(reply.NextSteps)
	}

	return &model.ChatMessage{
		MessageUID:        util.GenerateUUID(),
		SessionID:         session.ID,
		Sender:            model.SenderAssistant,
		Kind:              model.MessageKindText,
		Content:           reply.Response,
		IntentCategory:    reply.Category,
		Confidence:        reply.Confidence,
		ExtractedEntities: entities,
		ActionRequired:    len(reply.ActionPlan) > 0,
	}
}

// failureReason maps a gateway error to the value stored on the
// degraded message. Stored on the message (not only the context) so
// replaying messages reproduces the context exactly.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrModelUnreachable):
		return "unreachable"
	case errors.Is(err, ErrModelRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}

// buildContextBlock assembles the prompt preamble: the citizen's
// profile plus where the conversation currently stands. Profile lookup
// failures degrade to an empty profile rather than failing the turn.
func (s *ChatService) buildContextBlock(ctx context.Context, userID int64, cctx *model.ConversationContext) string {
	var b strings.Builder

	b.WriteString(s.buildProfileBlock(ctx, userID))

	b.WriteString("Conversation state:\n")
	fmt.Fprintf(&b, "- Current flow: %s\n", cctx.CurrentFlow)
	if cctx.UserIntent != "" {
		fmt.Fprintf(&b, "- Last intent: %s\n", cctx.UserIntent)
	}
	if cctx.ConversationSummary != "" {
		fmt.Fprintf(&b, "- Summary so far: %s\n", cctx.ConversationSummary)
	}
	if len(cctx.PendingActions) > 0 {
		fmt.Fprintf(&b, "- Pending actions: %s\n", strings.Join(cctx.PendingActions, "; "))
	}
	return b.String()
}

// buildProfileBlock renders the citizen's profile as a prompt preamble.
// Lookup failures degrade to an empty block.
func (s *ChatService) buildProfileBlock(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Citizen profile:\n")
	if user.Name != "" {
		fmt.Fprintf(&b, "- Name: %s\n", user.Name)
	}
	if user.Gender != "" {
		fmt.Fprintf(&b, "- Gender: %s\n", user.Gender)
	}
	if user.DOB != nil {
		fmt.Fprintf(&b, "- Date of birth: %s\n", user.DOB.Format("2006-01-02"))
	}
	if user.Address != "" {
		fmt.Fprintf(&b, "- Address: %s\n", user.Address)
	}
	fmt.Fprintf(&b, "- KYC completed: %v\n", user.KYCCompleted)
	return b.String()
}

// FormAssistance returns model-generated guidance for filling the named
// scheme's application form, pre-filled from the citizen's profile. An
// empty scheme name falls back to a generic application form.
func (s *ChatService) FormAssistance(ctx context.Context, userID int64, schemeName string) (*FormGuide, error) {
	schemeName = strings.TrimSpace(schemeName)
	if schemeName == "" {
		schemeName = "General Application"
	}
	return s.gateway.FormAssistance(ctx, schemeName, s.buildProfileBlock(ctx, userID))
}

// applyTurn folds one assistant message into the context, in place.
// This is the single merge rule: both the live update path and
// deriveContext use it, which is what keeps the cached context equal to
// the replay derivation.
func applyTurn(cctx *model.ConversationContext, msg *model.ChatMessage) {
	if msg.Sender != model.SenderAssistant {
		return
	}
	if cctx.ExtractedData == nil {
		cctx.ExtractedData = model.JSONMap{}
	}

	if msg.Kind == model.MessageKindStatus {
		// Degraded turn: record the outage, touch nothing else.
		cctx.UserIntent = msg.IntentCategory
		if reason, ok := msg.ExtractedEntities["failure_reason"]; ok {
			cctx.ExtractedData["failure_reason"] = reason
		}
		return
	}
	if msg.IntentCategory == "" {
		// Seeded welcome and other unclassified system output carry no
		// context updates.
		return
	}

	if flow, ok := flowForCategory(msg.IntentCategory); ok {
		cctx.CurrentFlow = flow
	}
	if intent, ok := msg.ExtractedEntities["intent"].(string); ok && intent != "" {
		cctx.UserIntent = intent
	} else {
		cctx.UserIntent = msg.IntentCategory
	}

	// Structured entities accumulate last-write-wins per key; a key the
	// turn did not produce keeps its previous value.
	for _, key := range []string{"required_documents", "eligible_schemes", "next_steps"} {
		if v, ok := msg.ExtractedEntities[key]; ok {
			cctx.ExtractedData[key] = v
		}
	}
	// A classified turn with no failure clears any recorded outage.
	delete(cctx.ExtractedData, "failure_reason")

	// The action plan is replaced wholesale every classified turn.
	actions := toStringList(msg.ExtractedEntities["action_plan"])
	if actions == nil {
		actions = []string{}
	}
	cctx.PendingActions = model.JSONList(actions)

	// The summary is replaced, never merged.
	cctx.ConversationSummary = util.TruncateString(msg.Content, 500)
}

// deriveContext rebuilds the context of a session purely from its
// message history. The result must match the cached row field for
// field; the cache is an optimisation, not a second source of truth.
func deriveContext(sessionID int64, messages []model.ChatMessage) *model.ConversationContext {
	cctx := &model.ConversationContext{
		SessionID:      sessionID,
		CurrentFlow:    model.FlowIdle,
		ExtractedData:  model.JSONMap{},
		PendingActions: model.JSONList{},
	}
	for i := range messages {
		applyTurn(cctx, &messages[i])
	}
	return cctx
}

// flowForCategory maps a model category to the conversation flow it
// drives. Unknown categories (including UNCLASSIFIED) leave the flow
// untouched.
func flowForCategory(category string) (string, bool) {
	switch category {
	case "ELIGIBILITY":
		return model.FlowEligibilityCheck, true
	case "DOCUMENT":
		return model.FlowDocumentVerification, true
	case "APPLICATION":
		return model.FlowApplicationSubmission, true
	case "STATUS":
		return model.FlowStatusInquiry, true
	case "SCHEME_SEARCH", "ASK":
		return model.FlowIdle, true
	default:
		return "", false
	}
}

func toInterfaceList(values []string) []interface{} {
	result := make([]interface{}, 0, len(values))
	for _, v := range values {
		result = append(result, v)
	}
	return result
}

// toStringList normalises a JSON-decoded list: depending on whether the
// message came straight from the gateway or back from the database, the
// value is []interface{} or []string.
func toStringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		result := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}
