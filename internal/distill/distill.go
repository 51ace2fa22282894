package distill

import (
	"encoding/json"
	"sort"
	"strings"

	"webpeel/internal/model"
)

// Result is the outcome of a budget distillation pass.
type Result struct {
	Content  string
	Fallback bool
}

// DeriveQuery builds the scoring query from a caller question when one
// exists, otherwise from the document title and first heading.
func DeriveQuery(content, title, question string) string {
	if strings.TrimSpace(question) != "" {
		return question
	}
	query := title
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			query += " " + strings.TrimLeft(line, "# ")
			break
		}
	}
	return strings.TrimSpace(query)
}

// Distill reduces content to the token budget by BM25 passage
// selection: passages are scored against the query, included greedily
// in descending score order, and emitted in original document order.
// The first heading line is always kept. When selection yields under
// 10% of a substantial input, it falls back to head truncation at a
// word boundary and flags the result.
func Distill(content string, budgetTokens int, format model.Format, query string) Result {
	if budgetTokens <= 0 || EstimateTokens(content) <= budgetTokens {
		return Result{Content: content}
	}

	passages := SplitPassages(content, format)
	if len(passages) <= 1 {
		return headFallback(content, budgetTokens)
	}

	corpus := newBM25Corpus(passages)
	queryTerms := tokenize(query)

	type scored struct {
		idx   int
		score float64
	}
	order := make([]scored, len(passages))
	for i := range passages {
		order[i] = scored{idx: i, score: corpus.score(i, queryTerms)}
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].score > order[b].score })

	selected := make(map[int]struct{})
	used := 0

	// The title line anchors the output regardless of its score.
	headingIdx := -1
	for i, p := range passages {
		if strings.HasPrefix(strings.TrimSpace(p), "#") {
			headingIdx = i
			break
		}
	}
	if headingIdx >= 0 {
		selected[headingIdx] = struct{}{}
		used += EstimateTokens(passages[headingIdx])
	}

	for _, s := range order {
		if _, ok := selected[s.idx]; ok {
			continue
		}
		cost := EstimateTokens(passages[s.idx])
		if used+cost > budgetTokens {
			continue
		}
		selected[s.idx] = struct{}{}
		used += cost
	}

	kept := make([]string, 0, len(selected))
	for i, p := range passages {
		if _, ok := selected[i]; ok {
			kept = append(kept, p)
		}
	}
	out := strings.TrimSpace(strings.Join(kept, "\n\n"))

	if len(out) < len(content)/10 && len(content) > 500 {
		return headFallback(content, budgetTokens)
	}
	return Result{Content: out}
}

func headFallback(content string, budgetTokens int) Result {
	maxChars := budgetTokens * 4
	if len(content) <= maxChars {
		return Result{Content: content, Fallback: true}
	}
	cut := content[:maxChars]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > maxChars/2 {
		cut = cut[:idx]
	}
	return Result{Content: strings.TrimSpace(cut), Fallback: true}
}

// SplitPassages breaks content into scoring units: blank-line separated
// paragraphs for markdown and text, array elements for JSON.
func SplitPassages(content string, format model.Format) []string {
	if format == "json" || looksLikeJSONArray(content) {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(content), &arr); err == nil && len(arr) > 1 {
			out := make([]string, 0, len(arr))
			for _, el := range arr {
				out = append(out, string(el))
			}
			return out
		}
	}

	parts := strings.Split(content, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func looksLikeJSONArray(content string) bool {
	t := strings.TrimSpace(content)
	return strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]")
}

// Chunk splits content into pieces of roughly chunkTokens tokens each,
// breaking at paragraph boundaries.
func Chunk(content string, chunkTokens int) []string {
	if chunkTokens <= 0 || EstimateTokens(content) <= chunkTokens {
		return nil
	}

	passages := SplitPassages(content, model.FormatText)
	var chunks []string
	var cur []string
	used := 0
	for _, p := range passages {
		cost := EstimateTokens(p)
		if used > 0 && used+cost > chunkTokens {
			chunks = append(chunks, strings.Join(cur, "\n\n"))
			cur = nil
			used = 0
		}
		cur = append(cur, p)
		used += cost
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, "\n\n"))
	}
	return chunks
}
