package engram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/engramhq/engram-go/observe"
)

// MemoriesService stores and searches vector memories. Embedding
// happens server side; the client only ships text.
type MemoriesService struct {
	client *Client
}

// Memory is a stored memory. Score is only set on search results.
type Memory struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Score     float64           `json:"score,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// StoreMemoryRequest stores one memory.
type StoreMemoryRequest struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchMemoriesRequest is a similarity search over stored memories.
type SearchMemoriesRequest struct {
	// Query is the text to search for.
	Query string `json:"query"`

	// TopK caps the number of results. Zero lets the backend choose.
	TopK int `json:"top_k,omitempty"`

	// Filter restricts results to memories whose metadata matches every
	// entry.
	Filter map[string]string `json:"filter,omitempty"`
}

type memoryList struct {
	Items []Memory `json:"items"`
}

// Store saves a memory and returns it with its assigned id.
func (s *MemoriesService) Store(ctx context.Context, req StoreMemoryRequest) (*Memory, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("%w: text", ErrMissingField)
	}
	var mem Memory
	err := s.client.call(ctx,
		observe.CallMeta{Service: "memories", Operation: "store"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/memories",
			body:   req,
			out:    &mem,
		})
	if err != nil {
		return nil, err
	}
	return &mem, nil
}

// Search returns the memories most similar to the query, best first.
func (s *MemoriesService) Search(ctx context.Context, req SearchMemoriesRequest) ([]Memory, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query", ErrMissingField)
	}
	var list memoryList
	err := s.client.call(ctx,
		observe.CallMeta{Service: "memories", Operation: "search"},
		apiRequest{
			method: http.MethodPost,
			path:   "/v1/memories/search",
			body:   req,
			out:    &list,
		})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Get fetches a memory by id.
func (s *MemoriesService) Get(ctx context.Context, id string) (*Memory, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var mem Memory
	err := s.client.call(ctx,
		observe.CallMeta{Service: "memories", Operation: "get"},
		apiRequest{
			method: http.MethodGet,
			path:   "/v1/memories/" + url.PathEscape(id),
			out:    &mem,
		})
	if err != nil {
		return nil, err
	}
	return &mem, nil
}

// Delete removes a memory.
func (s *MemoriesService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.call(ctx,
		observe.CallMeta{Service: "memories", Operation: "delete"},
		apiRequest{
			method: http.MethodDelete,
			path:   "/v1/memories/" + url.PathEscape(id),
		})
}
