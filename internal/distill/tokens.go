// Package distill reduces content to a token budget using BM25 passage
// selection, and answers caller questions lexically without an LLM.
package distill

// EstimateTokens approximates the token count of text with the usual
// four-characters-per-token heuristic.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
