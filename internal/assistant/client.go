package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrEmptyReply = errors.New("assistant returned no text")

// Client produces a single assistant reply for a user message.
type Client interface {
	Reply(ctx context.Context, persona, displayName, message string) (string, error)
}

// Persona prompt prefixes. Unknown personas fall back to "main".
var personaPrompts = map[string]string{
	"main":      "You are a helpful AI assistant.",
	"lawyer":    "You are a legal assistant. Provide legal advice and information.",
	"writer":    "You are a writing assistant. Help with content creation and editing.",
	"teacher":   "You are an educational tutor. Help with learning and teaching.",
	"doctor":    "You are a health advisor. Provide general health information (not medical advice).",
	"developer": "You are a code assistant. Help with programming and technical questions.",
}

// NormalizePersona maps an arbitrary persona string to a supported one.
func NormalizePersona(persona string) string {
	if _, ok := personaPrompts[persona]; ok {
		return persona
	}
	return "main"
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"

// NewGeminiClient constructs a GeminiClient. An empty baseURL uses the
// public endpoint.
func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiURL
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Reply builds the persona prompt and performs one request/response round
// trip.
func (g *GeminiClient) Reply(ctx context.Context, persona, displayName, message string) (string, error) {
	prompt := fmt.Sprintf("%s User: %s is asking: %s",
		personaPrompts[NormalizePersona(persona)], displayName, message)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant request: status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
