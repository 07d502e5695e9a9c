package engram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/engramhq/engram-go/observe"
	"github.com/engramhq/engram-go/resilience"
)

// MessagesService exchanges messages between agents.
type MessagesService struct {
	client *Client
}

// AgentMessage is an agent-to-agent message. Payload is opaque to the
// client and is delivered verbatim.
type AgentMessage struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	AckedAt   *time.Time      `json:"acked_at,omitempty"`
}

// SendMessageRequest sends one message to an agent's inbox.
type SendMessageRequest struct {
	// To is the receiving agent.
	To string `json:"to"`

	// Payload is the message body, delivered verbatim.
	Payload json.RawMessage `json:"payload"`
}

// ListMessagesRequest pages through an agent's inbox.
type ListMessagesRequest struct {
	// Inbox is the receiving agent whose messages to list. Required.
	Inbox string

	Limit  int
	Cursor string
}

// AgentMessageList is one page of messages.
type AgentMessageList struct {
	Items      []AgentMessage `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Send delivers a message and returns it with its assigned id.
func (s *MessagesService) Send(ctx context.Context, req SendMessageRequest) (*AgentMessage, error) {
	if req.To == "" {
		return nil, fmt.Errorf("%w: to", ErrMissingField)
	}
	if len(req.Payload) == 0 {
		return nil, fmt.Errorf("%w: payload", ErrMissingField)
	}
	var msg AgentMessage
	err := s.client.call(ctx,
		observe.CallMeta{Service: "messages", Operation: "send"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/messages",
			body:   req,
			out:    &msg,
		})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List pages through an inbox, oldest unacked first.
func (s *MessagesService) List(ctx context.Context, req ListMessagesRequest) (*AgentMessageList, error) {
	if req.Inbox == "" {
		return nil, fmt.Errorf("%w: inbox", ErrMissingField)
	}
	q := pageQuery(req.Limit, req.Cursor)
	q.Set("inbox", req.Inbox)
	var list AgentMessageList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "messages", Operation: "list"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/messages",
			query:  q,
			out:    &list,
		},
		resilience.WithPriority(resilience.PriorityLow))
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Ack marks a message as processed so it drops out of the inbox.
func (s *MessagesService) Ack(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.call(ctx,
		observe.CallMeta{Service: "messages", Operation: "ack"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/messages/" + url.PathEscape(id) + "/ack",
		})
}
