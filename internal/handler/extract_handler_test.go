package handler

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateAtWordBoundary(t *testing.T) {
	if got := truncateAtWordBoundary("short text", 100); got != "short text" {
		t.Fatalf("text under the limit should pass through, got %q", got)
	}

	got := truncateAtWordBoundary("the quick brown fox jumps", 15)
	if got != "the quick" {
		t.Fatalf("expected cut at the last whitespace, got %q", got)
	}
}

func TestTruncateAtWordBoundaryKeepsRunesIntact(t *testing.T) {
	// 没有空白可退让时，截断点落在多字节字符中间也不能产生坏码
	text := strings.Repeat("光", 10)
	for limit := 1; limit < len(text); limit++ {
		got := truncateAtWordBoundary(text, limit)
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d produced invalid UTF-8: %q", limit, got)
		}
		if len(got) > limit {
			t.Fatalf("limit %d: result longer than limit (%d bytes)", limit, len(got))
		}
	}
}
