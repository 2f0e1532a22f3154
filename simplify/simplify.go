// Package simplify rewrites a scraped story into clean spoken-English
// narration text via the Groq chat-completions API.
package simplify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

const systemPrompt = `You rewrite internet stories as clean voiceover narration. Keep the author's voice and every plot point. Remove markdown, links, edits and meta commentary. Respond with the rewritten story only — no preamble, no quotes.`

// Simplifier calls Groq to produce TTS-ready text.
type Simplifier struct {
	cfg        *config.Config
	httpClient *http.Client
}

func New(cfg *config.Config) *Simplifier {
	return &Simplifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Simplify rewrites rawText using the configured prompt template. Empty
// input or an empty rewrite is an invalid-input failure; any transport or
// API failure is a collaborator-unavailable failure.
func (s *Simplifier) Simplify(ctx context.Context, rawText, promptTemplate string) (string, error) {
	if strings.TrimSpace(rawText) == "" {
		return "", fmt.Errorf("empty story text: %w", types.ErrInvalidInput)
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY not set: %w", types.ErrCollaboratorUnavailable)
	}

	log.Printf("[simplify] Rewriting %d chars via Groq (%s)...", len(rawText), s.cfg.Simplify.GroqModel)

	reqBody := groqRequest{
		Model: s.cfg.Simplify.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, rawText)},
		},
		Temperature: s.cfg.Simplify.Temperature,
		MaxTokens:   s.cfg.Simplify.MaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.groq.com/openai/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %v: %w", err, types.ErrCollaboratorUnavailable)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read groq response: %v: %w", err, types.ErrCollaboratorUnavailable)
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return "", fmt.Errorf("parse groq response: %v: %w", err, types.ErrCollaboratorUnavailable)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq error: %s: %w", groqResp.Error.Message, types.ErrCollaboratorUnavailable)
	}
	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices: %w", types.ErrCollaboratorUnavailable)
	}

	text := cleanText(groqResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("groq returned empty rewrite: %w", types.ErrInvalidInput)
	}

	log.Printf("[simplify] ✅ Rewrote to %d chars", len(text))
	return text, nil
}

// cleanText strips markdown fences and surrounding quotes the model
// sometimes wraps the rewrite in.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "\"")
	return strings.TrimSpace(s)
}
