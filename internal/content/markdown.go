package content

import (
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// ConvertOptions controls HTML to markdown conversion.
type ConvertOptions struct {
	Domain         string
	IncludeImages  bool
	IncludeIframes bool
}

// ToMarkdown converts HTML to CommonMark markdown with GitHub-flavored
// extensions (tables, fenced code, strikethrough). Script, style, svg,
// noscript, and form content is always dropped; images and iframes are
// dropped unless requested.
func ToMarkdown(htmlStr string, opts ConvertOptions) (string, error) {
	converter := htmlmd.NewConverter(opts.Domain, true, nil)
	converter.Use(plugin.GitHubFlavored())

	remove := []string{"script", "style", "svg", "noscript", "form"}
	if !opts.IncludeImages {
		remove = append(remove, "img", "picture", "figure")
	}
	if !opts.IncludeIframes {
		remove = append(remove, "iframe")
	}
	converter.Remove(remove...)

	md, err := converter.ConvertString(htmlStr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// CleanMarkdown strips markdown link and image syntax, keeping link text.
// Used for the "clean" output format.
func CleanMarkdown(md string) string {
	out := imagePattern.ReplaceAllString(md, "")
	out = linkPattern.ReplaceAllString(out, "$1")
	out = autolinkPattern.ReplaceAllString(out, "")

	// Collapse runs of blank lines left behind by removed images.
	lines := strings.Split(out, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := 0
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		cleaned = append(cleaned, ln)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
