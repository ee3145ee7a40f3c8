package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"lexrag/internal/port"
)

// GeminiClient keeps conversation threads locally and replays them as chat
// history, since Gemini has no server-side conversation objects.
type GeminiClient struct {
	client *genai.Client
	name   string

	mu      sync.Mutex
	threads map[string]*geminiThread
}

type geminiThread struct {
	system  string
	history []*genai.Content
}

func NewGeminiClient(ctx context.Context, apiKeyEnv, model string) (*GeminiClient, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		client:  client,
		name:    model,
		threads: make(map[string]*geminiThread),
	}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, req port.GenerateRequest) (port.Generation, error) {
	var thread *geminiThread
	var history []*genai.Content
	if req.ConversationID != "" {
		g.mu.Lock()
		t, ok := g.threads[req.ConversationID]
		if ok {
			thread = t
			history = append(history, t.history...)
		}
		g.mu.Unlock()
		if !ok {
			return port.Generation{}, fmt.Errorf("unknown conversation: %s", req.ConversationID)
		}
	}

	model := g.client.GenerativeModel(g.name)
	if thread != nil && thread.system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(thread.system))
	}
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(req.Prompt))
	if err != nil {
		return port.Generation{}, fmt.Errorf("gemini generation failed: %w", err)
	}
	text := responseText(resp)

	if thread != nil {
		g.mu.Lock()
		thread.history = append(thread.history,
			genai.NewUserContent(genai.Text(req.Prompt)),
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(text)}},
		)
		g.mu.Unlock()
	}
	return port.Generation{Text: text, ConversationID: req.ConversationID}, nil
}

func (g *GeminiClient) CreateConversation(_ context.Context, systemPrompt string) (string, error) {
	id := "conv_" + uuid.NewString()
	g.mu.Lock()
	g.threads[id] = &geminiThread{system: systemPrompt}
	g.mu.Unlock()
	return id, nil
}

func (g *GeminiClient) DeleteConversation(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.threads[id]; !ok {
		return fmt.Errorf("unknown conversation: %s", id)
	}
	delete(g.threads, id)
	return nil
}

func (g *GeminiClient) ModelName() string {
	return g.name
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
