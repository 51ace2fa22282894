package content

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"webpeel/internal/model"
)

// Readable runs reader-mode extraction over the raw HTML, returning the
// article body as text plus the standard article metadata.
func Readable(htmlStr, pageURL string) (*model.ReadabilityResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(strings.NewReader(htmlStr), parsed)
	if err != nil {
		return nil, err
	}

	res := &model.ReadabilityResult{
		Content:  strings.TrimSpace(article.TextContent),
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Excerpt:  strings.TrimSpace(article.Excerpt),
	}
	if article.PublishedTime != nil {
		res.Published = article.PublishedTime.Format("2006-01-02")
	}
	return res, nil
}
