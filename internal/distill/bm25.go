package distill

import (
	"math"
	"regexp"
	"strings"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases and splits text into alphanumeric terms.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// bm25Corpus holds per-passage term statistics for scoring.
type bm25Corpus struct {
	docs   [][]string
	df     map[string]int
	avgLen float64
}

func newBM25Corpus(passages []string) *bm25Corpus {
	c := &bm25Corpus{df: make(map[string]int)}
	total := 0
	for _, p := range passages {
		terms := tokenize(p)
		c.docs = append(c.docs, terms)
		total += len(terms)
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			c.df[t]++
		}
	}
	if len(passages) > 0 {
		c.avgLen = float64(total) / float64(len(passages))
	}
	return c
}

// score computes the BM25 score of passage i against the query terms.
func (c *bm25Corpus) score(i int, query []string) float64 {
	doc := c.docs[i]
	if len(doc) == 0 || len(query) == 0 {
		return 0
	}

	tf := make(map[string]int, len(doc))
	for _, t := range doc {
		tf[t]++
	}

	n := float64(len(c.docs))
	dl := float64(len(doc))
	var total float64
	for _, q := range query {
		f := float64(tf[q])
		if f == 0 {
			continue
		}
		df := float64(c.df[q])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		denom := f + bm25K1*(1-bm25B+bm25B*dl/c.avgLen)
		total += idf * (f * (bm25K1 + 1)) / denom
	}
	return total
}
