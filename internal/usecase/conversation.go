package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/port"
)

// Asker answers a question inside an optional LLM conversation.
type Asker interface {
	Ask(ctx context.Context, query, conversationID string) (*Answer, error)
}

// ConversationUseCase manages sessions, their conversations and the turns
// recorded in them.
type ConversationUseCase struct {
	sessions     port.SessionStore
	llm          port.LLM
	asker        Asker
	systemPrompt string
	logger       logging.Logger
	now          func() time.Time

	// mu serializes read-modify-write cycles on the session store.
	mu sync.Mutex
}

func NewConversationUseCase(
	sessions port.SessionStore,
	llm port.LLM,
	asker Asker,
	systemPrompt string,
	logger logging.Logger,
) *ConversationUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ConversationUseCase{
		sessions:     sessions,
		llm:          llm,
		asker:        asker,
		systemPrompt: systemPrompt,
		logger:       logger,
		now:          time.Now,
	}
}

// SessionView is what a client needs to resume work.
type SessionView struct {
	SessionID            string
	ActiveConversationID string
	Title                string
}

// ConversationSummary is a row of the conversation list.
type ConversationSummary struct {
	ID       string `json:"conversation_id"`
	Title    string `json:"title"`
	IsActive bool   `json:"is_active"`
}

// InitOrRestore returns the oldest session, creating one when none exists.
// The service runs a single shared session.
func (u *ConversationUseCase) InitOrRestore(ctx context.Context) (*SessionView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	ids, err := u.sessions.List(ctx)
	if err != nil {
		return nil, err
	}

	var sess *domain.Session
	if len(ids) > 0 {
		sess, err = u.sessions.Get(ctx, ids[0])
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}
	if sess == nil {
		sess = &domain.Session{ID: uuid.NewString(), CreatedAt: u.now()}
		if err := u.sessions.Put(ctx, sess); err != nil {
			return nil, err
		}
		u.logger.Info("created session", logging.String("session_id", sess.ID))
	}

	view := &SessionView{SessionID: sess.ID, ActiveConversationID: sess.ActiveConversationID}
	if conv := sess.Conversation(sess.ActiveConversationID); conv != nil {
		view.Title = conv.Title
	}
	return view, nil
}

// NewConversation opens an LLM conversation seeded with the system prompt,
// titles it "대화 N" and makes it active.
func (u *ConversationUseCase) NewConversation(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	if _, err := u.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	id, err := u.llm.CreateConversation(ctx, u.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	var conv domain.Conversation
	err = u.update(ctx, sessionID, func(sess *domain.Session) error {
		conv = domain.Conversation{
			ID:        id,
			Title:     fmt.Sprintf("대화 %d", len(sess.Conversations)+1),
			History:   []domain.Turn{},
			CreatedAt: u.now(),
		}
		sess.Conversations = append(sess.Conversations, conv)
		sess.ActiveConversationID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("created conversation", logging.String("session_id", sessionID), logging.String("conversation_id", id))
	return &conv, nil
}

// SwitchConversation makes an existing conversation active.
func (u *ConversationUseCase) SwitchConversation(ctx context.Context, sessionID, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := u.update(ctx, sessionID, func(sess *domain.Session) error {
		c := sess.Conversation(conversationID)
		if c == nil {
			return domain.ErrConversationNotFound
		}
		sess.ActiveConversationID = conversationID
		conv = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns conversations in creation order.
func (u *ConversationUseCase) ListConversations(ctx context.Context, sessionID string) ([]ConversationSummary, error) {
	sess, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items := make([]ConversationSummary, 0, len(sess.Conversations))
	for _, c := range sess.Conversations {
		items = append(items, ConversationSummary{
			ID:       c.ID,
			Title:    c.Title,
			IsActive: c.ID == sess.ActiveConversationID,
		})
	}
	return items, nil
}

// ConversationDetail returns one conversation with its history.
func (u *ConversationUseCase) ConversationDetail(ctx context.Context, sessionID, conversationID string) (*domain.Conversation, error) {
	sess, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	conv := sess.Conversation(conversationID)
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

// DeleteResult is the session state after a delete.
type DeleteResult struct {
	ActiveConversationID string
	History              []domain.Turn
}

// DeleteConversation removes a conversation. Failure to delete it on the LLM
// side is logged and ignored. When the active conversation is removed the
// first remaining one becomes active.
func (u *ConversationUseCase) DeleteConversation(ctx context.Context, sessionID, conversationID string) (*DeleteResult, error) {
	sess, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Conversation(conversationID) == nil {
		return nil, domain.ErrConversationNotFound
	}

	if err := u.llm.DeleteConversation(ctx, conversationID); err != nil {
		u.logger.Warn("failed to delete LLM conversation", logging.String("conversation_id", conversationID), logging.Err(err))
	}

	result := &DeleteResult{History: []domain.Turn{}}
	err = u.update(ctx, sessionID, func(sess *domain.Session) error {
		if !sess.RemoveConversation(conversationID) {
			return domain.ErrConversationNotFound
		}
		if sess.ActiveConversationID == conversationID {
			sess.ActiveConversationID = ""
			if len(sess.Conversations) > 0 {
				sess.ActiveConversationID = sess.Conversations[0].ID
			}
		}
		if active := sess.Conversation(sess.ActiveConversationID); active != nil {
			result.History = append(result.History, active.History...)
		}
		result.ActiveConversationID = sess.ActiveConversationID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transcript renders a conversation as downloadable plain text.
func (u *ConversationUseCase) Transcript(ctx context.Context, sessionID, conversationID string) (string, error) {
	conv, err := u.ConversationDetail(ctx, sessionID, conversationID)
	if err != nil {
		return "", err
	}
	if len(conv.History) == 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrEmptyConversation, conv.Title)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== 세션: %s, 대화 ID: %s ===\n\n", sessionID, conversationID)
	for _, turn := range conv.History {
		role := "법률상담봇"
		if turn.Role == domain.RoleUser {
			role = "사용자"
		}
		fmt.Fprintf(&sb, "  - [%s]:\n%s\n\n", role, turn.Content)
	}
	return sb.String(), nil
}

// Ask answers query in a conversation and records both turns. An empty
// conversation id uses the active conversation, creating one if needed.
func (u *ConversationUseCase) Ask(ctx context.Context, sessionID, conversationID, query string) (*Answer, string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, "", domain.ErrEmptyQuery
	}

	sess, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if conversationID == "" {
		conversationID = sess.ActiveConversationID
	}
	if conversationID == "" {
		conv, err := u.NewConversation(ctx, sessionID)
		if err != nil {
			return nil, "", err
		}
		conversationID = conv.ID
	} else if sess.Conversation(conversationID) == nil {
		return nil, "", domain.ErrConversationNotFound
	}

	u.logger.Info("question received",
		logging.String("session_id", sessionID),
		logging.String("conversation_id", conversationID),
		logging.String("query", query))

	answer, err := u.asker.Ask(ctx, query, conversationID)
	if err != nil {
		return nil, conversationID, err
	}

	err = u.update(ctx, sessionID, func(sess *domain.Session) error {
		conv := sess.Conversation(conversationID)
		if conv == nil {
			return domain.ErrConversationNotFound
		}
		conv.History = append(conv.History,
			domain.Turn{Role: domain.RoleUser, Content: query},
			domain.Turn{Role: domain.RoleAssistant, Content: answer.Text},
		)
		return nil
	})
	if err != nil {
		return nil, conversationID, err
	}
	return answer, conversationID, nil
}

func (u *ConversationUseCase) update(ctx context.Context, sessionID string, fn func(*domain.Session) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	sess, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return u.sessions.Put(ctx, sess)
}
