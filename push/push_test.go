package push

import (
	"slices"
	"testing"
)

func TestPermanentTokenError(t *testing.T) {
	for _, code := range []string{"unregistered", "invalid_token", "not_registered"} {
		if !permanentTokenError(code) {
			t.Fatalf("%q should be permanent", code)
		}
	}
	for _, code := range []string{"", "unavailable", "internal", "quota_exceeded"} {
		if permanentTokenError(code) {
			t.Fatalf("%q should not be permanent", code)
		}
	}
}

func TestChunkTokens(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}

	var got [][]string
	for batch := range chunkTokens(tokens, 2) {
		got = append(got, slices.Clone(batch))
	}
	if len(got) != 3 {
		t.Fatalf("got %d batches, wanted 3", len(got))
	}
	if !slices.Equal(got[2], []string{"e"}) {
		t.Fatalf("last batch = %v", got[2])
	}

	count := 0
	for range chunkTokens(nil, 2) {
		count++
	}
	if count != 0 {
		t.Fatal("empty token list should yield no batches")
	}
}
