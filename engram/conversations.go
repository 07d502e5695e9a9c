package engram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/engramhq/engram-go/observe"
	"github.com/engramhq/engram-go/resilience"
)

// ConversationsService manages conversation threads and the messages
// within them.
type ConversationsService struct {
	client *Client
}

// Message is a single utterance in a conversation.
type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Role           string            `json:"role"`
	Content        string            `json:"content"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Conversation is a thread of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendMessageRequest appends one message to a conversation.
type AppendMessageRequest struct {
	Role     string            `json:"role"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListConversationsRequest filters a conversation listing.
type ListConversationsRequest struct {
	// Limit caps the number of items returned. Zero lets the backend
	// choose.
	Limit int

	// Cursor resumes a previous listing from its NextCursor.
	Cursor string
}

// ConversationList is one page of conversations.
type ConversationList struct {
	Items      []Conversation `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Append adds a message to a conversation and returns the stored
// message with its assigned id.
func (s *ConversationsService) Append(ctx context.Context, conversationID string, req AppendMessageRequest) (*Message, error) {
	if conversationID == "" {
		return nil, ErrMissingID
	}
	if req.Role == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingField)
	}
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content", ErrMissingField)
	}
	var msg Message
	err := s.client.call(ctx,
		observe.CallMeta{Service: "conversations", Operation: "append"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/conversations/" + url.PathEscape(conversationID) + "/messages",
			body:   req,
			out:    &msg,
		})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Get fetches a conversation with its messages.
func (s *ConversationsService) Get(ctx context.Context, id string) (*Conversation, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var conv Conversation
	err := s.client.call(ctx,
		observe.CallMeta{Service: "conversations", Operation: "get"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/conversations/" + url.PathEscape(id),
			out:    &conv,
		})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// List pages through conversations, most recent first. List walks run
// at low priority so they yield to interactive calls under load.
func (s *ConversationsService) List(ctx context.Context, req ListConversationsRequest) (*ConversationList, error) {
	var list ConversationList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "conversations", Operation: "list"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/conversations",
			query:  pageQuery(req.Limit, req.Cursor),
			out:    &list,
		},
		resilience.WithPriority(resilience.PriorityLow))
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete removes a conversation and all its messages.
func (s *ConversationsService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.call(ctx,
		observe.CallMeta{Service: "conversations", Operation: "delete"},
		apiRequest{
			method: http.MethodDelete,
			path:   "/v1/conversations/" + url.PathEscape(id),
		})
}
