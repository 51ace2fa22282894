package distill

import (
	"fmt"
	"strings"
	"testing"

	"webpeel/internal/model"
)

func bigArticle() string {
	var b strings.Builder
	b.WriteString("# Distributed Consensus\n\n")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "Paragraph %d covers replication details, quorum sizing, and leader election under partial failure conditions in distributed systems. ", i)
		b.WriteString(strings.Repeat("Additional filler sentence about logs and snapshots. ", 4))
		b.WriteString("\n\n")
	}
	b.WriteString("The Raft consensus protocol elects a single leader per term and replicates a log to followers.\n\n")
	return b.String()
}

func TestDistillStaysWithinBudget(t *testing.T) {
	content := bigArticle()
	budget := 1000

	res := Distill(content, budget, model.FormatMarkdown, "raft leader election")
	got := EstimateTokens(res.Content)
	if float64(got) > float64(budget)*1.1 {
		t.Fatalf("distilled output %d tokens exceeds budget %d", got, budget)
	}
	if res.Content == "" {
		t.Fatal("distillation emptied the content")
	}
}

func TestDistillKeepsHeading(t *testing.T) {
	res := Distill(bigArticle(), 500, model.FormatMarkdown, "raft")
	if !strings.Contains(res.Content, "# Distributed Consensus") {
		t.Fatal("heading line was dropped")
	}
}

func TestDistillPreservesOrder(t *testing.T) {
	res := Distill(bigArticle(), 800, model.FormatMarkdown, "quorum replication")
	iHead := strings.Index(res.Content, "# Distributed Consensus")
	iRaft := strings.Index(res.Content, "Raft consensus protocol")
	if iRaft >= 0 && iHead > iRaft {
		t.Fatal("passages not in original document order")
	}
}

func TestDistillIdempotent(t *testing.T) {
	content := bigArticle()
	query := "leader election"

	once := Distill(content, 900, model.FormatMarkdown, query)
	twice := Distill(once.Content, 900, model.FormatMarkdown, query)
	if once.Content != twice.Content {
		t.Fatal("distillation is not idempotent")
	}
}

func TestDistillUnderBudgetUnchanged(t *testing.T) {
	content := "# Small\n\nJust one short paragraph."
	res := Distill(content, 1000, model.FormatMarkdown, "anything")
	if res.Content != content || res.Fallback {
		t.Fatalf("small content should pass through, got %+v", res)
	}
}

func TestDistillFallbackOnSinglePassage(t *testing.T) {
	content := strings.Repeat("one enormous unbroken paragraph with many words ", 200)
	res := Distill(content, 100, model.FormatText, "words")
	if !res.Fallback {
		t.Fatal("single-passage input should trigger head fallback")
	}
	if EstimateTokens(res.Content) > 110 {
		t.Fatalf("fallback output too large: %d tokens", EstimateTokens(res.Content))
	}
}

func TestSplitPassagesJSONArray(t *testing.T) {
	parts := SplitPassages(`[{"a":1},{"b":2},{"c":3}]`, model.FormatMarkdown)
	if len(parts) != 3 {
		t.Fatalf("expected 3 elements, got %d: %v", len(parts), parts)
	}
}

func TestChunk(t *testing.T) {
	content := bigArticle()
	chunks := Chunk(content, 500)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if EstimateTokens(c) > 600 {
			t.Fatalf("chunk %d oversized: %d tokens", i, EstimateTokens(c))
		}
	}
	if Chunk("tiny", 500) != nil {
		t.Fatal("under-limit content should not chunk")
	}
}

func TestDeriveQuery(t *testing.T) {
	if q := DeriveQuery("# Heading\n\nbody", "Title", "the question"); q != "the question" {
		t.Fatalf("question should win, got %q", q)
	}
	if q := DeriveQuery("# Heading\n\nbody", "Title", ""); q != "Title Heading" {
		t.Fatalf("expected title+heading, got %q", q)
	}
}

func TestEstimateTokensBand(t *testing.T) {
	text := strings.Repeat("abcd", 250)
	tokens := EstimateTokens(text)
	if tokens < len(text)/5-1 || tokens > len(text)/3+1 {
		t.Fatalf("token estimate %d outside char-heuristic band for %d chars", tokens, len(text))
	}
}
