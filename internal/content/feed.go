package content

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Feed is a normalized RSS or Atom feed.
type Feed struct {
	Title   string
	Items   []FeedItem
	IsAtom  bool
	Content string
	Links   []string
}

// FeedItem is one entry of a feed.
type FeedItem struct {
	Title       string
	Link        string
	Description string
}

type rssDoc struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDoc struct {
	Title   string `xml:"title"`
	Entries []struct {
		Title   string `xml:"title"`
		Links   []struct {
			Href string `xml:"href,attr"`
			Rel  string `xml:"rel,attr"`
		} `xml:"link"`
		Summary string `xml:"summary"`
		Content string `xml:"content"`
	} `xml:"entry"`
}

// ParseFeed decodes an RSS or Atom document and renders it as markdown:
// a heading for the channel title and one section per item with its
// link and the first 200 chars of its description.
func ParseFeed(body []byte) (*Feed, bool) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.Contains(trimmed, "<rss") && !strings.Contains(trimmed, "<feed") && !strings.Contains(trimmed, "<channel") {
		return nil, false
	}

	feed := &Feed{}

	var rss rssDoc
	if err := xml.Unmarshal(body, &rss); err == nil && (rss.Channel.Title != "" || len(rss.Channel.Items) > 0) {
		feed.Title = strings.TrimSpace(rss.Channel.Title)
		for _, it := range rss.Channel.Items {
			feed.Items = append(feed.Items, FeedItem{
				Title:       strings.TrimSpace(it.Title),
				Link:        strings.TrimSpace(it.Link),
				Description: strings.TrimSpace(it.Description),
			})
		}
	} else {
		var atom atomDoc
		if err := xml.Unmarshal(body, &atom); err != nil || (atom.Title == "" && len(atom.Entries) == 0) {
			return nil, false
		}
		feed.IsAtom = true
		feed.Title = strings.TrimSpace(atom.Title)
		for _, e := range atom.Entries {
			link := ""
			for _, l := range e.Links {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			desc := e.Summary
			if desc == "" {
				desc = e.Content
			}
			feed.Items = append(feed.Items, FeedItem{
				Title:       strings.TrimSpace(e.Title),
				Link:        strings.TrimSpace(link),
				Description: strings.TrimSpace(desc),
			})
		}
	}

	var b strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", feed.Title)
	}
	for _, it := range feed.Items {
		if it.Title != "" {
			fmt.Fprintf(&b, "## %s\n", it.Title)
		}
		if it.Link != "" {
			fmt.Fprintf(&b, "%s\n", it.Link)
			feed.Links = append(feed.Links, it.Link)
		}
		if it.Description != "" {
			desc := HTMLToText(it.Description, 0)
			if len(desc) > 200 {
				desc = desc[:200]
			}
			fmt.Fprintf(&b, "%s\n", desc)
		}
		b.WriteString("\n")
	}
	feed.Content = strings.TrimSpace(b.String())

	return feed, true
}
