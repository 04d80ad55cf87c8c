package scrape

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// careersRe matches link hrefs or anchor text that usually lead to a
// careers or vacancies page.
var careersRe = regexp.MustCompile(`(?i)\b(careers?|jobs?|vacancies|vacanci|openings?|hiring|join us|work with us|join the team|opportunities)\b`)

// NormalizeURL trims raw and prefixes https:// when it has no http(s)
// scheme. Blank input stays blank.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(raw), "http") {
		raw = "https://" + strings.TrimLeft(raw, "/")
	}
	return raw
}

// IsCareersLink reports whether a link looks like it leads to job listings.
func IsCareersLink(l Link) bool {
	return careersRe.MatchString(l.Href + " " + l.Text)
}

// FindCareersLinks returns up to limit distinct same-host links from page
// that look like careers pages, shortest URL first.
func FindCareersLinks(page *Page, limit int) []string {
	if page == nil {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, l := range page.Links {
		u, err := url.Parse(l.Href)
		if err != nil || !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		if seen[l.Href] || !IsCareersLink(l) {
			continue
		}
		seen[l.Href] = true
		out = append(out, l.Href)
	}

	slices.SortStableFunc(out, func(a, b string) int { return len(a) - len(b) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
