package cache

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func mustKey(t *testing.T, tenantID, operation string, params any) string {
	t.Helper()
	key, err := NewDefaultKeyer().Key(tenantID, operation, params)
	if err != nil {
		t.Fatalf("Key(%q, %q) error = %v", tenantID, operation, err)
	}
	return key
}

func TestKeyer_DeterministicForMaps(t *testing.T) {
	// Same content, different insertion order.
	maps := []map[string]any{
		{"b": 2, "a": 1, "c": 3},
		{"a": 1, "c": 3, "b": 2},
		{"c": 3, "b": 2, "a": 1},
	}

	first := mustKey(t, "tenant-a", "memories.search", maps[0])
	for i, m := range maps[1:] {
		if got := mustKey(t, "tenant-a", "memories.search", m); got != first {
			t.Errorf("key for permutation %d = %s, want %s", i+1, got, first)
		}
	}
}

func TestKeyer_NestedMapsDeterministic(t *testing.T) {
	key1 := mustKey(t, "tenant-a", "memories.search", map[string]any{
		"outer": map[string]any{"z": 26, "a": 1, "m": 13},
		"other": "value",
	})
	key2 := mustKey(t, "tenant-a", "memories.search", map[string]any{
		"other": "value",
		"outer": map[string]any{"a": 1, "m": 13, "z": 26},
	})

	if key1 != key2 {
		t.Errorf("nested map keys differ:\n  %s\n  %s", key1, key2)
	}
}

func TestKeyer_SliceOrderSignificant(t *testing.T) {
	key1 := mustKey(t, "tenant-a", "memories.search", map[string]any{"items": []any{1, 2, 3}})
	key2 := mustKey(t, "tenant-a", "memories.search", map[string]any{"items": []any{3, 2, 1}})

	if key1 == key2 {
		t.Errorf("keys equal for different slice order: %s", key1)
	}
}

func TestKeyer_RepeatedCallsStable(t *testing.T) {
	params := map[string]any{"query": "test", "limit": 10}

	first := mustKey(t, "tenant-a", "facts.recall", params)
	for i := 1; i < 5; i++ {
		if got := mustKey(t, "tenant-a", "facts.recall", params); got != first {
			t.Errorf("call %d produced %s, want %s", i, got, first)
		}
	}
}

func TestKeyer_ScopesDistinguished(t *testing.T) {
	params := map[string]any{"query": "test"}
	base := mustKey(t, "tenant-a", "memories.search", params)

	if got := mustKey(t, "tenant-a", "facts.recall", params); got == base {
		t.Errorf("same key across operations: %s", got)
	}
	if got := mustKey(t, "tenant-b", "memories.search", params); got == base {
		t.Errorf("same key across tenants: %s", got)
	}
}

func TestKeyer_KeyShape(t *testing.T) {
	key := mustKey(t, "tenant-a", "policies.get", map[string]any{"test": "value"})

	prefix := "engram:tenant-a:policies.get:"
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("key = %q, want prefix %q", key, prefix)
	}

	hash := strings.TrimPrefix(key, prefix)
	if len(hash) != 16 {
		t.Errorf("hash length = %d, want 16: %q", len(hash), hash)
	}
	if _, err := hex.DecodeString(hash); err != nil {
		t.Errorf("hash %q is not hex: %v", hash, err)
	}
}

func TestKeyer_NilAndEmptyParamsDiffer(t *testing.T) {
	keyNil := mustKey(t, "tenant-a", "policies.get", nil)
	if keyNil != mustKey(t, "tenant-a", "policies.get", nil) {
		t.Error("nil params not deterministic")
	}

	if keyEmpty := mustKey(t, "tenant-a", "policies.get", map[string]any{}); keyNil == keyEmpty {
		t.Errorf("nil and empty params share key: %s", keyNil)
	}
}

func TestKeyer_StructParams(t *testing.T) {
	type searchParams struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}

	key1 := mustKey(t, "tenant-a", "memories.search", searchParams{Query: "test", Limit: 10})
	key2 := mustKey(t, "tenant-a", "memories.search", searchParams{Query: "test", Limit: 10})
	if key1 != key2 {
		t.Errorf("identical structs produced different keys:\n  %s\n  %s", key1, key2)
	}

	if key3 := mustKey(t, "tenant-a", "memories.search", searchParams{Query: "other", Limit: 10}); key1 == key3 {
		t.Error("different struct values share key")
	}
}

func TestKeyer_InvalidScope(t *testing.T) {
	keyer := NewDefaultKeyer()

	if _, err := keyer.Key("tenant\nwith\nnewlines", "memories.search", nil); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Key() error = %v, want ErrInvalidKey", err)
	}
	if _, err := keyer.Key("tenant-a", strings.Repeat("x", MaxKeyLength), nil); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("Key() error = %v, want ErrKeyTooLong", err)
	}
}

func TestKeyer_UnmarshalableParams(t *testing.T) {
	if _, err := NewDefaultKeyer().Key("tenant-a", "memories.search", func() {}); err == nil {
		t.Error("Key() = nil error for func params, want canonicalization error")
	}
}
