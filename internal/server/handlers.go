package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"lexrag/internal/domain"
	"lexrag/internal/logging"
)

func (s *Server) initOrRestore(c *gin.Context) {
	view, err := s.conversations.InitOrRestore(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if view.ActiveConversationID == "" {
		c.JSON(http.StatusOK, gin.H{"session_id": view.SessionID})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":     view.SessionID,
		"active_conv_id": view.ActiveConversationID,
		"title":          view.Title,
	})
}

func (s *Server) updateDB(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.rebuilder.Rebuild(c.Request.Context(), s.lawTypes, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	added := 0
	for _, r := range results {
		added += r.Added
	}
	s.logger.Info("index rebuilt over HTTP", logging.Int("law_types", len(results)), logging.Int("documents", added))
	c.JSON(http.StatusOK, gin.H{"message": "DB 업데이트 완료"})
}

type askRequest struct {
	SessionID      string `json:"session_id" binding:"required"`
	ConversationID string `json:"conv_id"`
	Query          string `json:"query"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	answer, convID, err := s.conversations.Ask(c.Request.Context(), req.SessionID, req.ConversationID, req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"answer":          answer.Text,
		"conversation_id": convID,
	})
}

func (s *Server) downloadConversation(c *gin.Context) {
	sid, cid := c.Query("session_id"), c.Query("conversation_id")

	text, err := s.conversations.Transcript(c.Request.Context(), sid, cid)
	if errors.Is(err, domain.ErrEmptyConversation) {
		title := ""
		if conv, derr := s.conversations.ConversationDetail(c.Request.Context(), sid, cid); derr == nil {
			title = conv.Title
		}
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("%q의 대화 내용이 없습니다.", title))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	filename := fmt.Sprintf("conversation_%s.txt", cid)
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (s *Server) deleteConversation(c *gin.Context) {
	res, err := s.conversations.DeleteConversation(c.Request.Context(), c.Query("session_id"), c.Query("conversation_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var active any
	if res.ActiveConversationID != "" {
		active = res.ActiveConversationID
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"message":        "대화 삭제됨",
		"active_conv_id": active,
		"history":        history(res.History),
	})
}

func (s *Server) conversationDetail(c *gin.Context) {
	conv, err := s.conversations.ConversationDetail(c.Request.Context(), c.Query("session_id"), c.Query("conversation_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationBody(conv))
}

func (s *Server) listConversations(c *gin.Context) {
	items, err := s.conversations.ListConversations(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "conversations": items})
}

func (s *Server) newConversation(c *gin.Context) {
	conv, err := s.conversations.NewConversation(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationBody(conv))
}

func (s *Server) switchConversation(c *gin.Context) {
	conv, err := s.conversations.SwitchConversation(c.Request.Context(), c.Query("session_id"), c.Query("conversation_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conversationBody(conv))
}

func conversationBody(conv *domain.Conversation) gin.H {
	return gin.H{
		"status":          "ok",
		"conversation_id": conv.ID,
		"title":           conv.Title,
		"history":         history(conv.History),
	}
}

// history keeps an empty history a JSON array.
func history(turns []domain.Turn) []domain.Turn {
	if turns == nil {
		return []domain.Turn{}
	}
	return turns
}
