package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/config"
)

const defaultGeminiModel = "gemini-2.5-pro"

// GeminiProvider talks to the Gemini generateContent API directly over HTTP.
type GeminiProvider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiProvider initializes the client. The API key comes from config;
// its absence is a startup error handled there.
func NewGeminiProvider(cfg config.ProviderConfig, log *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		apiKey:   cfg.APIKey,
		endpoint: fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.Named("vision.gemini"),
	}, nil
}

// Generate sends the prompt (and screenshot, when present) to Gemini and
// returns the text of the first candidate. Transient HTTP failures are
// retried with exponential backoff; everything else fails immediately.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(p.buildPayload(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var text string
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", p.apiKey)

		start := time.Now()
		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			p.log.Warn("network error during Gemini request, retrying", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return p.statusError(resp.StatusCode, respBody)
		}

		var payload geminiResponse
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode Gemini response: %w", err))
		}
		if len(payload.Candidates) == 0 {
			return backoff.Permanent(fmt.Errorf("gemini returned no candidates"))
		}
		candidate := payload.Candidates[0]
		if len(candidate.Content.Parts) == 0 {
			if candidate.FinishReason == "SAFETY" {
				return backoff.Permanent(fmt.Errorf("gemini blocked the request (reason: %s)", candidate.FinishReason))
			}
			return fmt.Errorf("gemini returned empty content (reason: %s)", candidate.FinishReason)
		}

		p.log.Debug("gemini generation complete",
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_tokens", payload.UsageMetadata.PromptTokenCount),
			zap.Int("completion_tokens", payload.UsageMetadata.CandidatesTokenCount),
		)
		text = candidate.Content.Parts[0].Text
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *GeminiProvider) buildPayload(req Request) geminiRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	if len(req.ImagePNG) > 0 {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(req.ImagePNG),
			},
		})
	}
	payload := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.1},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiSystemInstruction{
			Parts: []geminiPart{{Text: req.System}},
		}
	}
	return payload
}

func (p *GeminiProvider) statusError(statusCode int, body []byte) error {
	err := fmt.Errorf("gemini API error: status %d, body: %s", statusCode, truncate(string(body), 500))
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		p.log.Warn("transient Gemini API error, retrying", zap.Int("status", statusCode))
		return err
	default:
		p.log.Error("Gemini API returned error status", zap.Int("status", statusCode))
		return backoff.Permanent(err)
	}
}
