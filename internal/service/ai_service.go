package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agsa-server/internal/config"
)

// Model failure taxonomy. ErrModelUnavailable is the umbrella: both
// concrete failures wrap it, so callers that only care whether the
// assistant can answer check errors.Is(err, ErrModelUnavailable).
var (
	ErrModelUnavailable = errors.New("assistant model unavailable")

	// ErrModelUnreachable: the provider could not be reached at all
	// (connect failure, timeout, DNS).
	ErrModelUnreachable = fmt.Errorf("%w: provider unreachable", ErrModelUnavailable)

	// ErrModelRejected: the provider answered but refused the request
	// (auth, quota, safety block, empty candidates).
	ErrModelRejected = fmt.Errorf("%w: request rejected by provider", ErrModelUnavailable)
)

// CategoryUnclassified marks a reply whose JSON envelope could not be
// parsed. The raw text is still surfaced; only the classification is
// degraded.
const CategoryUnclassified = "UNCLASSIFIED"

// AIService talks to the Gemini generateContent API.
type AIService struct {
	config *config.Config
	client *http.Client
}

// NewAIService creates an AIService. The request timeout comes from
// config so tests can shrink it.
func NewAIService(cfg *config.Config) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.AI.Timeout,
		},
	}
}

// ModelReply is the parsed assistant answer. Confidence is nil when the
// model did not produce a parsable classification.
type ModelReply struct {
	Category          string   `json:"category"`
	Intent            string   `json:"intent"`
	Confidence        *float64 `json:"confidence"`
	Response          string   `json:"response"`
	ActionPlan        []string `json:"action_plan"`
	RequiredDocuments []string `json:"required_documents"`
	EligibleSchemes   []string `json:"eligible_schemes"`
	NextSteps         []string `json:"next_steps"`
}

// geminiRequest mirrors the generateContent request body.
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	CandidateCount  int     `json:"candidateCount"`
}

// geminiResponse mirrors the generateContent response body.
type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

const systemInstruction = `You are AGSA, a government services assistant helping Indian citizens discover welfare schemes, check their eligibility and prepare applications.

Always answer with a single JSON object, no markdown, with exactly these keys:
{
  "category": one of "ELIGIBILITY", "SCHEME_SEARCH", "DOCUMENT", "APPLICATION", "STATUS", "ASK",
  "intent": a short snake_case label for what the citizen wants,
  "confidence": a number between 0 and 1,
  "response": your answer to the citizen in plain language,
  "action_plan": list of concrete steps the citizen should take,
  "required_documents": list of document names needed, if any,
  "eligible_schemes": list of scheme names that may apply, if any,
  "next_steps": list of short follow-up suggestions
}

Be accurate about Indian government schemes. If you are unsure, say so in the response and lower the confidence. Never invent scheme names.`

// Generate sends one user message (plus a context block describing the
// citizen and the conversation so far) and returns the parsed reply.
//
// Failure contract: transport-level failures map to ErrModelUnreachable,
// provider refusals to ErrModelRejected. A reply that arrives but does
// not parse as the expected JSON is NOT an error: it degrades to a
// ModelReply carrying the raw text, CategoryUnclassified and a nil
// confidence.
func (s *AIService) Generate(ctx context.Context, userMessage, contextBlock string) (*ModelReply, error) {
	prompt := userMessage
	if contextBlock != "" {
		prompt = contextBlock + "\n\nCitizen message:\n" + userMessage
	}
	raw, err := s.generateText(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}
	return parseModelReply(raw), nil
}

// generateText performs one generateContent round trip and returns the
// first candidate's text. Both assistant operations share it, so the
// failure taxonomy is identical for chat and form assistance.
func (s *AIService) generateText(ctx context.Context, instruction, prompt string) (string, error) {
	if s.config.AI.GeminiAPIKey == "" {
		return "", fmt.Errorf("%w: missing API key", ErrModelRejected)
	}

	body := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: instruction}},
		},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.7,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: s.config.AI.MaxOutputTokens,
			CandidateCount:  1,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(s.config.AI.Endpoint, "/"), s.config.AI.Model, s.config.AI.GeminiAPIKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v (after %s)", ErrModelUnreachable, err, time.Since(start).Round(time.Millisecond))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrModelUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrModelRejected, resp.StatusCode, truncateBody(bodyBytes))
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &gemResp); err != nil {
		return "", fmt.Errorf("%w: unparsable response envelope: %v", ErrModelRejected, err)
	}
	if gemResp.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrModelRejected, gemResp.Error.Message, gemResp.Error.Status)
	}
	if len(gemResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrModelRejected)
	}

	cand := gemResp.Candidates[0]
	if cand.FinishReason == "SAFETY" || cand.FinishReason == "PROHIBITED_CONTENT" {
		return "", fmt.Errorf("%w: blocked (%s)", ErrModelRejected, cand.FinishReason)
	}
	if len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate content", ErrModelRejected)
	}

	return strings.TrimSpace(cand.Content.Parts[0].Text), nil
}

// FormGuide is the model's structured help for filling one scheme's
// application form.
type FormGuide struct {
	SchemeName        string            `json:"scheme_name"`
	PreFilledData     map[string]string `json:"pre_filled_data"`
	MissingFields     []string          `json:"missing_fields"`
	CompletionSteps   []string          `json:"completion_steps"`
	Warnings          []string          `json:"warnings"`
	DocumentsRequired []string          `json:"documents_required"`
}

const formInstruction = `You are AGSA, a government services assistant helping Indian citizens fill out application forms for welfare schemes.

Always answer with a single JSON object, no markdown, with exactly these keys:
{
  "pre_filled_data": object mapping form field names to values already known from the citizen's profile,
  "missing_fields": list of form fields the citizen still has to provide,
  "completion_steps": ordered list of steps to complete and submit the form,
  "warnings": list of common mistakes and important notes for this form,
  "documents_required": list of supporting documents to attach
}

Only pre-fill fields the profile actually covers. Never invent values.`

// FormAssistance asks the model for form-filling guidance for one named
// scheme, given the citizen's profile block. Unlike chat there is no
// raw-text degradation channel here: a reply that does not parse as the
// expected JSON is a provider failure, never fabricated guidance.
func (s *AIService) FormAssistance(ctx context.Context, schemeName, profileBlock string) (*FormGuide, error) {
	prompt := fmt.Sprintf("Help fill out the application form for %q.", schemeName)
	if profileBlock != "" {
		prompt += "\n\n" + profileBlock
	}

	raw, err := s.generateText(ctx, formInstruction, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var parsed struct {
		PreFilledData     map[string]string `json:"pre_filled_data"`
		MissingFields     flexStrings       `json:"missing_fields"`
		CompletionSteps   flexStrings       `json:"completion_steps"`
		Warnings          flexStrings       `json:"warnings"`
		DocumentsRequired flexStrings       `json:"documents_required"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: unparsable form guidance: %v", ErrModelRejected, err)
	}

	return &FormGuide{
		SchemeName:        schemeName,
		PreFilledData:     parsed.PreFilledData,
		MissingFields:     parsed.MissingFields,
		CompletionSteps:   parsed.CompletionSteps,
		Warnings:          parsed.Warnings,
		DocumentsRequired: parsed.DocumentsRequired,
	}, nil
}

// flexStrings decodes either a JSON array of strings or a single bare
// string. Models occasionally flatten list fields like next_steps into
// one sentence; that should not degrade the whole reply.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = []string{single}
		}
		return nil
	}
	// Unexpected shape: drop the field, keep the reply.
	return nil
}

// parseModelReply extracts the structured reply from the model text.
// Models wrap JSON in markdown fences more often than not, so fences are
// stripped first. If the remainder still is not the expected JSON the
// whole text becomes the response verbatim, unclassified.
func parseModelReply(raw string) *ModelReply {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed struct {
		Category          string      `json:"category"`
		Intent            string      `json:"intent"`
		Confidence        *float64    `json:"confidence"`
		Response          string      `json:"response"`
		ActionPlan        flexStrings `json:"action_plan"`
		RequiredDocuments flexStrings `json:"required_documents"`
		EligibleSchemes   flexStrings `json:"eligible_schemes"`
		NextSteps         flexStrings `json:"next_steps"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil || parsed.Response == "" {
		return &ModelReply{
			Category:   CategoryUnclassified,
			Response:   raw,
			Confidence: nil,
		}
	}

	reply := &ModelReply{
		Category:          parsed.Category,
		Intent:            parsed.Intent,
		Confidence:        parsed.Confidence,
		Response:          parsed.Response,
		ActionPlan:        parsed.ActionPlan,
		RequiredDocuments: parsed.RequiredDocuments,
		EligibleSchemes:   parsed.EligibleSchemes,
		NextSteps:         parsed.NextSteps,
	}

	// Clamp out-of-range confidence rather than trusting the model.
	if reply.Confidence != nil && (*reply.Confidence < 0 || *reply.Confidence > 1) {
		reply.Confidence = nil
	}
	if reply.Category == "" {
		reply.Category = CategoryUnclassified
	}
	return reply
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
