package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agsa-server/internal/config"
)

func aiConfig(endpoint string) *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			GeminiAPIKey:    "test-key",
			Model:           "gemini-1.5-flash",
			Endpoint:        endpoint,
			Timeout:         2 * time.Second,
			MaxOutputTokens: 512,
		},
	}
}

// geminiText wraps model text into the generateContent response shape.
func geminiText(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGenerateParsesStructuredReply(t *testing.T) {
	reply := `{"category":"ELIGIBILITY","intent":"check_eligibility","confidence":0.9,` +
		`"response":"You may qualify for PM-KISAN.","action_plan":["Verify land records"],` +
		`"required_documents":["Aadhaar Card"],"eligible_schemes":["PM-KISAN"],"next_steps":["Apply online"]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, 1, body.GenerationConfig.CandidateCount)
		assert.InDelta(t, 0.7, body.GenerationConfig.Temperature, 1e-9)

		fmt.Fprint(w, geminiText(reply))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	result, err := svc.Generate(context.Background(), "Am I eligible?", "Citizen profile:\n- Name: Asha\n")
	require.NoError(t, err)

	assert.Equal(t, "ELIGIBILITY", result.Category)
	assert.Equal(t, "check_eligibility", result.Intent)
	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.9, *result.Confidence, 1e-9)
	assert.Equal(t, "You may qualify for PM-KISAN.", result.Response)
	assert.Equal(t, []string{"PM-KISAN"}, result.EligibleSchemes)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	reply := "```json\n{\"category\":\"ASK\",\"intent\":\"greeting\",\"confidence\":0.5,\"response\":\"Hello!\"}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiText(reply))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	result, err := svc.Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "ASK", result.Category)
	assert.Equal(t, "Hello!", result.Response)
}

func TestGenerateDegradesOnMalformedJSON(t *testing.T) {
	raw := "I think you might be eligible, but let me explain in plain prose."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiText(raw))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	result, err := svc.Generate(context.Background(), "Am I eligible?", "")
	require.NoError(t, err)

	// The raw text survives verbatim; only the classification degrades.
	assert.Equal(t, raw, result.Response)
	assert.Equal(t, CategoryUnclassified, result.Category)
	assert.Nil(t, result.Confidence)
	assert.Empty(t, result.EligibleSchemes)
}

func TestGenerateRejectedOnProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quota exceeded","status":"PERMISSION_DENIED"}}`)
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelRejected)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestGenerateRejectedOnEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelRejected)
}

func TestGenerateRejectedOnSafetyBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`)
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelRejected)
}

func TestGenerateUnreachableOnConnectFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	svc := NewAIService(aiConfig(server.URL))
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelUnreachable)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestGenerateUnreachableOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, geminiText("too late"))
	}))
	defer server.Close()

	cfg := aiConfig(server.URL)
	cfg.AI.Timeout = 50 * time.Millisecond

	svc := NewAIService(cfg)
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelUnreachable)
}

func TestGenerateRejectedWithoutAPIKey(t *testing.T) {
	cfg := aiConfig("http://localhost:1")
	cfg.AI.GeminiAPIKey = ""

	svc := NewAIService(cfg)
	_, err := svc.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrModelRejected)
}

func TestFormAssistanceParsesGuide(t *testing.T) {
	guide := "```json\n" + `{"pre_filled_data":{"applicant_name":"Asha Kumari","gender":"female"},` +
		`"missing_fields":["annual_income"],"completion_steps":["Fill in the income section","Submit at the nearest CSC"],` +
		`"warnings":"Names must match the Aadhaar card exactly","documents_required":["Aadhaar Card","Income Certificate"]}` + "\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, `"PM Awas Yojana"`)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "Citizen profile")

		fmt.Fprint(w, geminiText(guide))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	result, err := svc.FormAssistance(context.Background(), "PM Awas Yojana", "Citizen profile:\n- Name: Asha Kumari\n")
	require.NoError(t, err)

	assert.Equal(t, "PM Awas Yojana", result.SchemeName)
	assert.Equal(t, "Asha Kumari", result.PreFilledData["applicant_name"])
	assert.Equal(t, []string{"annual_income"}, result.MissingFields)
	assert.Len(t, result.CompletionSteps, 2)
	// Flattened list fields are tolerated here too.
	assert.Equal(t, []string{"Names must match the Aadhaar card exactly"}, result.Warnings)
}

func TestFormAssistanceRejectsUnparsableGuidance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiText("Just bring your Aadhaar card and apply online."))
	}))
	defer server.Close()

	svc := NewAIService(aiConfig(server.URL))
	_, err := svc.FormAssistance(context.Background(), "PM-KISAN", "")
	assert.ErrorIs(t, err, ErrModelRejected)
}

func TestParseModelReplyAcceptsFlattenedLists(t *testing.T) {
	reply := parseModelReply(`{"category":"ELIGIBILITY","response":"Two housing schemes may apply.",` +
		`"required_documents":["income certificate"],"next_steps":"Upload the income certificate"}`)

	assert.Equal(t, "ELIGIBILITY", reply.Category)
	assert.Equal(t, []string{"income certificate"}, reply.RequiredDocuments)
	assert.Equal(t, []string{"Upload the income certificate"}, reply.NextSteps)
}

func TestParseModelReplyClampsConfidence(t *testing.T) {
	reply := parseModelReply(`{"category":"ASK","confidence":3.5,"response":"hi"}`)
	assert.Nil(t, reply.Confidence)
	assert.Equal(t, "ASK", reply.Category)

	reply = parseModelReply(`{"confidence":0.4,"response":"hi"}`)
	assert.Equal(t, CategoryUnclassified, reply.Category)
}
