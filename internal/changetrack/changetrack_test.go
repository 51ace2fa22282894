package changetrack

import (
	"context"
	"testing"
)

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("hello world")
	if len(fp) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(fp))
	}
	if fp != Fingerprint("hello world") {
		t.Fatal("fingerprint not deterministic")
	}
	if fp == Fingerprint("hello world!") {
		t.Fatal("different content produced the same fingerprint")
	}
	for _, c := range fp {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("non-hex char %q in fingerprint %q", c, fp)
		}
	}
}

func TestCheckFirstSeen(t *testing.T) {
	tr := New("")
	defer tr.Close()

	ct := tr.Check(context.Background(), "https://example.com/page", "body v1")
	if !ct.FirstSeen {
		t.Fatal("first observation should report FirstSeen")
	}
	if ct.Changed {
		t.Fatal("first observation should not report a change")
	}
	if ct.PrevFingerprint != "" {
		t.Fatalf("prev fingerprint = %q on first sight", ct.PrevFingerprint)
	}
	if ct.CheckedAt == "" {
		t.Fatal("CheckedAt not set")
	}
}

func TestCheckDetectsChange(t *testing.T) {
	tr := New("")
	defer tr.Close()
	ctx := context.Background()

	first := tr.Check(ctx, "https://example.com/page", "body v1")
	same := tr.Check(ctx, "https://example.com/page", "body v1")
	if same.Changed || same.FirstSeen {
		t.Fatalf("identical body flagged: %+v", same)
	}
	if same.PrevFingerprint != first.Fingerprint {
		t.Fatalf("prev = %q, want %q", same.PrevFingerprint, first.Fingerprint)
	}

	changed := tr.Check(ctx, "https://example.com/page", "body v2")
	if !changed.Changed {
		t.Fatal("modified body not flagged as changed")
	}
	if changed.FirstSeen {
		t.Fatal("known URL reported as first seen")
	}
}

func TestCheckKeysByNormalizedURL(t *testing.T) {
	tr := New("")
	defer tr.Close()
	ctx := context.Background()

	tr.Check(ctx, "https://example.com/page", "body")
	again := tr.Check(ctx, "https://example.com/page#section", "body")
	if again.FirstSeen {
		t.Fatal("fragment variant should hit the same baseline")
	}
}

func TestNewBadRedisURLFallsBack(t *testing.T) {
	tr := New("not a url")
	defer tr.Close()

	ct := tr.Check(context.Background(), "https://example.com", "body")
	if !ct.FirstSeen {
		t.Fatal("memory fallback not working after bad redis url")
	}
}
