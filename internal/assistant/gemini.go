package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vach_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SystemPrompt persona of the assistant
const SystemPrompt = `You are Vach AI, an intelligent and friendly AI assistant built into the Vach chat application.

About You:
- Your name is "Vach AI" - a smart chatbot designed to help users with their conversations
- You're integrated directly into the Vach messaging platform

Your Capabilities:
- Answer questions on a wide range of topics with accuracy and clarity
- Assist with coding, technical questions, and problem-solving
- Summarize and analyze users' chat conversations when asked
- Remember conversation context to provide relevant follow-up responses

Your Personality:
- Professional yet warm and approachable
- Clear and concise in communication (2-4 sentences for simple questions)
- Use emojis occasionally to be engaging 😊 but don't overdo it
- Admit honestly when you don't know something`

// GeminiConfig generateContent settings
type GeminiConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	DefaultTimeout  time.Duration
}

// GeminiClient Responder over the Gemini generateContent REST api
type GeminiClient struct {
	cfg GeminiConfig
}

// NewGeminiClient init client
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{cfg: cfg}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	SystemInstruction geminiContent    `json:"systemInstruction"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete send history + prompt, return the first candidate text
func (g *GeminiClient) Complete(ctx context.Context, prompt string, history []Turn) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := g.cfg.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	req := generateRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: SystemPrompt}}},
		GenerationConfig: generationConfig{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxOutputTokens,
		},
	}
	for _, t := range history {
		req.Contents = append(req.Contents, geminiContent{Role: string(t.Role), Parts: []geminiPart{{Text: t.Text}}})
	}
	req.Contents = append(req.Contents, geminiContent{Role: string(RoleUser), Parts: []geminiPart{{Text: prompt}}})

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	agent := fiber.Post(url).
		Set("x-goog-api-key", g.cfg.APIKey).
		JSON(req).
		Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("gemini request: %w", errs[0])
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini decode (status %d): %w", code, err)
	}

	if err := classify(code, &resp); err != nil {
		logger.Log.Warn("gemini request failed", zap.Int("status", code), zap.Error(err))
		return "", err
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func classify(code int, resp *generateResponse) error {
	if resp.Error != nil || code >= 300 {
		msg, status := "", ""
		if resp.Error != nil {
			msg, status = resp.Error.Message, resp.Error.Status
		}
		switch {
		case code == fiber.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" || strings.Contains(strings.ToLower(msg), "quota"):
			return fmt.Errorf("%w: %s", ErrQuota, msg)
		case code == fiber.StatusUnauthorized || code == fiber.StatusForbidden ||
			strings.Contains(msg, "API_KEY_INVALID") || strings.Contains(msg, "API key"):
			return fmt.Errorf("%w: %s", ErrAPIKey, msg)
		default:
			return fmt.Errorf("gemini status %d: %s", code, msg)
		}
	}
	if resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("%w: %s", ErrSafety, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return ErrEmptyReply
	}
	if resp.Candidates[0].FinishReason == "SAFETY" {
		return ErrSafety
	}
	return nil
}
