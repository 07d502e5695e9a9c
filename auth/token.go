package auth

import (
	"context"
	"strings"
)

// TokenSource supplies bearer credentials for outgoing requests.
//
// Implementations must be safe for concurrent use; the client transport
// calls Token on every request.
type TokenSource interface {
	// Token returns a credential ready to be placed in an Authorization
	// header (without the "Bearer " prefix). It returns an error if no
	// credential can be produced.
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed credential such as a raw API key or a
// pre-issued token. The zero value returns ErrNoCredentials.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a token source that always returns token.
// Surrounding whitespace is trimmed.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: strings.TrimSpace(token)}
}

// Token returns the configured credential.
func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoCredentials
	}
	return s.token, nil
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

var (
	_ TokenSource = (*StaticTokenSource)(nil)
	_ TokenSource = (TokenSourceFunc)(nil)
)
