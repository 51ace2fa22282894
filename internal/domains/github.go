package domains

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// githubExtractor resolves repository pages through the GitHub REST API,
// which is far cheaper than rendering github.com.
type githubExtractor struct {
	client *http.Client
}

func (e *githubExtractor) Name() string { return "github" }

func (e *githubExtractor) Matches(u *url.URL) bool {
	if !hostIs(u, "github.com") {
		return false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// Only bare owner/repo pages; deep paths (issues, blobs) render fine as HTML.
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	OpenIssues  int    `json:"open_issues_count"`
	Homepage    string `json:"homepage"`
	License     struct {
		Name string `json:"name"`
	} `json:"license"`
	DefaultBranch string `json:"default_branch"`
}

type githubReadme struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (e *githubExtractor) Extract(ctx context.Context, u *url.URL) (*Result, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	owner, repo := parts[0], parts[1]

	var meta githubRepo
	if err := e.getJSON(ctx, fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo), &meta); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meta.FullName)
	if meta.Description != "" {
		b.WriteString(meta.Description + "\n\n")
	}
	fmt.Fprintf(&b, "Language: %s | Stars: %d | Forks: %d | Open issues: %d\n\n",
		meta.Language, meta.Stars, meta.Forks, meta.OpenIssues)
	if meta.License.Name != "" {
		fmt.Fprintf(&b, "License: %s\n\n", meta.License.Name)
	}
	if meta.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n\n", meta.Homepage)
	}

	var readme githubReadme
	if err := e.getJSON(ctx, fmt.Sprintf("https://api.github.com/repos/%s/%s/readme", owner, repo), &readme); err == nil {
		if text := decodeReadme(readme); text != "" {
			b.WriteString("## README\n\n")
			b.WriteString(text + "\n")
		}
	}

	var links []string
	if meta.Homepage != "" {
		links = append(links, meta.Homepage)
	}

	return &Result{
		Title:   meta.FullName,
		Content: strings.TrimSpace(b.String()),
		Data: map[string]any{
			"stars":    meta.Stars,
			"forks":    meta.Forks,
			"language": meta.Language,
		},
		Links:     links,
		SourceURL: u.String(),
	}, nil
}

func (e *githubExtractor) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d for %s", resp.StatusCode, rawURL)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeReadme(r githubReadme) string {
	if r.Encoding != "base64" {
		return r.Content
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
	if err != nil {
		return ""
	}
	return string(raw)
}
