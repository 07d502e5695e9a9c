package engram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxErrorBody bounds how much of an error response is read while
// decoding it.
const maxErrorBody = 64 * 1024

// apiRequest describes one HTTP exchange with the backend.
type apiRequest struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
}

// send performs a single HTTP exchange. It runs inside the admission
// gate; shedding and observation happen above it.
func (c *Client) send(ctx context.Context, r apiRequest, requestID string) error {
	var payload io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("engram: encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, payload)
	if err != nil {
		return fmt.Errorf("engram: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engram: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp, requestID)
	}
	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("engram: decode response: %w", err)
	}
	return nil
}

// pageQuery builds the paging parameters shared by list calls.
func pageQuery(limit int, cursor string) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return q
}

// decodeAPIError turns a non-2xx response into an *APIError. The
// backend's request_id wins over the client-generated one when both
// are present.
func decodeAPIError(resp *http.Response, requestID string) error {
	apiErr := &APIError{Status: resp.StatusCode, RequestID: requestID}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var decoded APIError
	if json.Unmarshal(data, &decoded) == nil && decoded.Message != "" {
		apiErr.Code = decoded.Code
		apiErr.Message = decoded.Message
		if decoded.RequestID != "" {
			apiErr.RequestID = decoded.RequestID
		}
		return apiErr
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		apiErr.Message = msg
		return apiErr
	}
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
