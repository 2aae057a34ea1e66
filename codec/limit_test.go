package codec

import (
	"strings"
	"testing"
)

func TestLimitRejectsOversizedPayloads(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 8}

	if v, err := c.Decode([]byte("short")); err != nil || v != "short" {
		t.Fatalf("Decode short = %q, %v", v, err)
	}
	if _, err := c.Decode([]byte(strings.Repeat("x", 9))); err == nil {
		t.Fatalf("Decode oversized: expected error")
	}

	// Encode is never limited
	big := strings.Repeat("y", 64)
	if b, err := c.Encode(big); err != nil || len(b) != 64 {
		t.Fatalf("Encode = %d bytes, %v", len(b), err)
	}
}

func TestLimitDisabledWhenNonPositive(t *testing.T) {
	c := Limit[string]{Inner: String{}}
	if v, err := c.Decode([]byte(strings.Repeat("x", 1024))); err != nil || len(v) != 1024 {
		t.Fatalf("Decode = %d chars, %v", len(v), err)
	}
}
