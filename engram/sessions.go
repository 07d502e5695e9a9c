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

// SessionsService manages agent sessions. Sessions expire unless kept
// alive with Touch.
type SessionsService struct {
	client *Client
}

// Session is a live agent session.
type Session struct {
	ID        string            `json:"id"`
	AgentID   string            `json:"agent_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// CreateSessionRequest opens a session.
type CreateSessionRequest struct {
	// AgentID identifies the agent the session belongs to.
	AgentID string `json:"agent_id"`

	// TTLSeconds is the idle expiry. Zero lets the backend choose.
	TTLSeconds int `json:"ttl_seconds,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListSessionsRequest filters a session listing.
type ListSessionsRequest struct {
	// AgentID restricts the listing to one agent. Optional.
	AgentID string

	Limit  int
	Cursor string
}

// SessionList is one page of sessions.
type SessionList struct {
	Items      []Session `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Create opens a session and returns it with its assigned id and
// expiry.
func (s *SessionsService) Create(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if req.AgentID == "" {
		return nil, fmt.Errorf("%w: agent_id", ErrMissingField)
	}
	var sess Session
	err := s.client.call(ctx,
		observe.CallMeta{Service: "sessions", Operation: "create"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/sessions",
			body:   req,
			out:    &sess,
		})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Get fetches a session by id.
func (s *SessionsService) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var sess Session
	err := s.client.call(ctx,
		observe.CallMeta{Service: "sessions", Operation: "get"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/sessions/" + url.PathEscape(id),
			out:    &sess,
		})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// List pages through sessions.
func (s *SessionsService) List(ctx context.Context, req ListSessionsRequest) (*SessionList, error) {
	q := pageQuery(req.Limit, req.Cursor)
	if req.AgentID != "" {
		q.Set("agent_id", req.AgentID)
	}
	var list SessionList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "sessions", Operation: "list"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/sessions",
			query:  q,
			out:    &list,
		},
		resilience.WithPriority(resilience.PriorityLow))
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete closes a session.
func (s *SessionsService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.call(ctx,
		observe.CallMeta{Service: "sessions", Operation: "delete"},
		apiRequest{
			method: http.MethodDelete,
			path:   "/v1/sessions/" + url.PathEscape(id),
		})
}

// Touch extends a session's expiry and returns the refreshed session.
func (s *SessionsService) Touch(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var sess Session
	err := s.client.call(ctx,
		observe.CallMeta{Service: "sessions", Operation: "touch"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/sessions/" + url.PathEscape(id) + "/touch",
			out:    &sess,
		})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
