package domain

import "time"

// CaseRecord is one parsed judgment from the preprocessed corpus.
type CaseRecord struct {
	Title      string
	CaseNumber string
	Issue      string
	Holding    string
	Content    string // issue and holding joined; empty records are never indexed
	Rationale  string
	LawType    string
}

// HasContent reports whether the record carries main text worth indexing.
func (r CaseRecord) HasContent() bool {
	return r.Content != ""
}

// Metadata keys stored alongside indexed documents.
const (
	MetaLawType    = "law_type"
	MetaTitle      = "title"
	MetaCaseNumber = "case_number"
	MetaRationale  = "rationale"
	MetaPartition  = "partition"
)

// Partitions of the same law type.
const (
	PartitionPublic  = "public"
	PartitionPrivate = "private"
)

// SearchResult is a retrieved case in a source-independent shape.
// Distance is nil for results from the external precedent API.
type SearchResult struct {
	Distance   *float64 `json:"유사도거리"`
	Content    string   `json:"내용"`
	LawType    string   `json:"법령종류"`
	Title      string   `json:"제목"`
	CaseNumber string   `json:"판례번호"`
	Rationale  *string  `json:"선정이유"`
}

// RetrievalContext groups the results of one source for one question.
type RetrievalContext struct {
	Query         string         `json:"query"`
	ExpandedQuery string         `json:"expanded_query"`
	Results       []SearchResult `json:"results"`
}

// NewRetrievalContext returns a context whose Results is never nil.
func NewRetrievalContext(query, expanded string, results []SearchResult) *RetrievalContext {
	if results == nil {
		results = []SearchResult{}
	}
	return &RetrievalContext{Query: query, ExpandedQuery: expanded, Results: results}
}

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Conversation struct {
	ID        string    `json:"conversation_id"`
	Title     string    `json:"title"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"created_at"`
}

// Session owns an ordered list of conversations and tracks the active one.
type Session struct {
	ID                   string         `json:"session_id"`
	Conversations        []Conversation `json:"conversations"`
	ActiveConversationID string         `json:"active_conversation_id"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Conversation returns a pointer into s.Conversations or nil.
func (s *Session) Conversation(id string) *Conversation {
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			return &s.Conversations[i]
		}
	}
	return nil
}

// RemoveConversation deletes a conversation, keeping order. Returns false if absent.
func (s *Session) RemoveConversation(id string) bool {
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			s.Conversations = append(s.Conversations[:i], s.Conversations[i+1:]...)
			return true
		}
	}
	return false
}
