// Package scrape fetches company web pages politely and reduces them to
// plain text and outbound links.
package scrape

import "context"

// Link is an anchor found on a page. Href is absolute.
type Link struct {
	Href string
	Text string
}

// Page is a fetched and parsed HTML document.
type Page struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Title      string
	// Text is the visible body text with scripts and styles removed.
	Text string
	// ContentText additionally drops site chrome (nav, header, footer, aside).
	ContentText string
	Links       []Link
}

// Scraper fetches a single URL and returns its parsed content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
}
