package engram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/engramhq/engram-go/observe"
)

// FactsService manages subject-predicate-object facts.
type FactsService struct {
	client *Client
}

// Fact is a single stored triple.
type Fact struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Predicate string    `json:"predicate"`
	Object    string    `json:"object"`
	CreatedAt time.Time `json:"created_at"`
}

// RecallFactsRequest filters a fact lookup.
type RecallFactsRequest struct {
	// Subject selects the facts to recall. Required.
	Subject string

	// Predicate narrows the recall to one relation. Optional.
	Predicate string

	// Limit caps the number of items returned. Zero lets the backend
	// choose.
	Limit int

	// Cursor resumes a previous recall from its NextCursor.
	Cursor string
}

// FactList is one page of facts.
type FactList struct {
	Items      []Fact `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type rememberFactRequest struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// Remember records a fact and returns it with its assigned id.
func (s *FactsService) Remember(ctx context.Context, subject, predicate, object string) (*Fact, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: subject", ErrMissingField)
	}
	if predicate == "" {
		return nil, fmt.Errorf("%w: predicate", ErrMissingField)
	}
	if object == "" {
		return nil, fmt.Errorf("%w: object", ErrMissingField)
	}
	var fact Fact
	err := s.client.call(ctx,
		observe.CallMeta{Service: "facts", Operation: "remember"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/facts",
			body:   rememberFactRequest{Subject: subject, Predicate: predicate, Object: object},
			out:    &fact,
		})
	if err != nil {
		return nil, err
	}
	return &fact, nil
}

// Recall returns the facts stored about a subject.
func (s *FactsService) Recall(ctx context.Context, req RecallFactsRequest) (*FactList, error) {
	if req.Subject == "" {
		return nil, fmt.Errorf("%w: subject", ErrMissingField)
	}
	q := pageQuery(req.Limit, req.Cursor)
	q.Set("subject", req.Subject)
	if req.Predicate != "" {
		q.Set("predicate", req.Predicate)
	}
	var list FactList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "facts", Operation: "recall"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/facts",
			query:  q,
			out:    &list,
		})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Forget removes a fact.
func (s *FactsService) Forget(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.call(ctx,
		observe.CallMeta{Service: "facts", Operation: "forget"},
		apiRequest{
			method: http.MethodDelete,
			path:   "/v1/facts/" + url.PathEscape(id),
		})
}
