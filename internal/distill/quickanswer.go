package distill

import (
	"regexp"
	"strings"

	"webpeel/internal/model"
)

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// Answer selects the best passage and sentence for a natural-language
// question using BM25, without calling an LLM. Confidence reflects how
// decisively the top passage beat the rest of the corpus.
func Answer(content, question string) *model.QuickAnswer {
	question = strings.TrimSpace(question)
	if question == "" || strings.TrimSpace(content) == "" {
		return nil
	}

	passages := SplitPassages(content, model.FormatText)
	if len(passages) == 0 {
		return nil
	}

	corpus := newBM25Corpus(passages)
	queryTerms := tokenize(question)
	if len(queryTerms) == 0 {
		return nil
	}

	bestIdx, best, second := -1, 0.0, 0.0
	for i := range passages {
		s := corpus.score(i, queryTerms)
		if s > best {
			second = best
			best = s
			bestIdx = i
		} else if s > second {
			second = s
		}
	}
	if bestIdx < 0 || best == 0 {
		return nil
	}

	passage := passages[bestIdx]
	answer := bestSentence(passage, queryTerms)

	// Saturating score mixed with the margin over the runner-up.
	conf := best / (best + 3)
	if second > 0 {
		margin := (best - second) / best
		conf = 0.7*conf + 0.3*margin
	}
	if conf > 1 {
		conf = 1
	}

	return &model.QuickAnswer{
		Answer:     answer,
		Confidence: conf,
		Passage:    passage,
	}
}

// bestSentence picks the sentence of a passage with the highest query
// term overlap, falling back to the whole passage.
func bestSentence(passage string, queryTerms []string) string {
	sentences := sentencePattern.FindAllString(passage, -1)
	if len(sentences) <= 1 {
		return strings.TrimSpace(passage)
	}

	qset := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		qset[t] = struct{}{}
	}

	best := ""
	bestHits := 0
	for _, s := range sentences {
		hits := 0
		for _, t := range tokenize(s) {
			if _, ok := qset[t]; ok {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = s
		}
	}
	if best == "" {
		return strings.TrimSpace(passage)
	}
	return strings.TrimSpace(best)
}
