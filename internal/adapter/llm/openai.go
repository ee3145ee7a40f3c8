package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// OpenAIClient talks to the OpenAI Responses and Conversations APIs.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type responsesRequest struct {
	Model        string `json:"model"`
	Input        string `json:"input"`
	Conversation string `json:"conversation,omitempty"`
}

type conversationItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type conversationRequest struct {
	Items []conversationItem `json:"items,omitempty"`
}

// NewOpenAIClient reads the API key from apiKeyEnv.
func NewOpenAIClient(apiKeyEnv, model, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, req port.GenerateRequest) (port.Generation, error) {
	body, err := c.do(ctx, http.MethodPost, "/responses", responsesRequest{
		Model:        c.model,
		Input:        req.Prompt,
		Conversation: req.ConversationID,
	})
	if err != nil {
		return port.Generation{}, err
	}
	text, err := outputText(body)
	if err != nil {
		return port.Generation{}, err
	}
	return port.Generation{Text: text, ConversationID: req.ConversationID}, nil
}

func (c *OpenAIClient) CreateConversation(ctx context.Context, systemPrompt string) (string, error) {
	var req conversationRequest
	if systemPrompt != "" {
		req.Items = []conversationItem{{Type: "message", Role: "system", Content: systemPrompt}}
	}
	body, err := c.do(ctx, http.MethodPost, "/conversations", req)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("%w: conversation id missing", domain.ErrMalformedResponse)
	}
	return id, nil
}

func (c *OpenAIClient) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/conversations/"+url.PathEscape(id), nil)
	return err
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

func (c *OpenAIClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// outputText concatenates every output_text part of a Responses payload.
// A response with no text parts yields "".
func outputText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return "", fmt.Errorf("API error: %s", msg)
	}

	var sb strings.Builder
	gjson.GetBytes(body, "output").ForEach(func(_, item gjson.Result) bool {
		item.Get("content").ForEach(func(_, part gjson.Result) bool {
			if part.Get("type").String() == "output_text" {
				sb.WriteString(part.Get("text").String())
			}
			return true
		})
		return true
	})
	return sb.String(), nil
}
