package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot interstitial detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// interstitialChars bounds how long a page can be and still count as a
// challenge page rather than a real site mentioning captchas.
const interstitialChars = 2000

// DetectBlock inspects a response and the page's visible text for signs of
// anti-bot protection.
func DetectBlock(resp *http.Response, text string) BlockType {
	if resp == nil {
		return BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" ||
			strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	if len(text) > interstitialChars {
		return BlockNone
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge"):
		return BlockCloudflare
	case strings.Contains(lower, "captcha"):
		return BlockCaptcha
	case strings.Contains(lower, "enable javascript") && len(lower) < 200:
		return BlockJSShell
	}
	return BlockNone
}
