package urlx

// Package urlx turns arbitrary human-pasted text into a validated,
// deduplicated list of platform-tagged URLs. It handles HTML-encoded, RTF,
// markdown and anchor-tag link forms, strips tracking parameters, and expands
// the well-known YouTube short forms.

import (
	"net/url"
	"regexp"
	"strings"
)

// ExtractedURL is one canonical URL found in the input text
type ExtractedURL struct {
	URL           string   `json:"url"`
	Platform      Platform `json:"platform"`
	Title         string   `json:"title,omitempty"`
	IsValid       bool     `json:"is_valid"`
	OriginalText  string   `json:"original_text"`
	IsPlaylist    bool     `json:"is_playlist"`
	PlaylistCount int      `json:"playlist_count,omitempty"`
}

// ExtractionResult is the structured output of Extract. TotalFound always
// equals len(URLs) + DuplicatesRemoved.
type ExtractionResult struct {
	URLs              []ExtractedURL `json:"urls"`
	TotalFound        int            `json:"total_found"`
	ValidURLs         int            `json:"valid_urls"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
}

var (
	genericURLRe = regexp.MustCompile(`https?://[^\s<>]+[^\s<>.,;:]`)
	rtfLinkRe    = regexp.MustCompile(`\\field\{[^}]*HYPERLINK\s+"([^"]+)"[^}]*\}[^}]*\}`)
	markdownRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	anchorRe     = regexp.MustCompile(`<a[^>]+href\s*=\s*["']([^"']+)["'][^>]*>`)
)

// Query parameter names dropped during canonicalization.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_content": true, "utm_term": true,
	"fbclid": true, "gclid": true,
	"ref": true, "referrer": true, "source": true, "campaign": true,
}

var htmlEntityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x2F;", "/",
	"&#x3D;", "=",
)

// Extract scans free-form text and returns every URL it can find, cleaned,
// classified, validated and deduplicated by canonical form. Malformed matches
// never produce an error; they come back with IsValid=false.
func Extract(text string) ExtractionResult {
	var found []ExtractedURL
	seen := make(map[string]bool)
	duplicates := 0

	for _, match := range genericURLRe.FindAllString(preprocess(text), -1) {
		cleaned, ok := tryClean(match)

		if seen[cleaned] {
			duplicates++
			continue
		}
		seen[cleaned] = true

		found = append(found, ExtractedURL{
			URL:          cleaned,
			Platform:     DetectPlatform(cleaned),
			IsValid:      ok && Validate(cleaned),
			OriginalText: match,
			IsPlaylist:   DetectPlaylist(cleaned),
		})
	}

	valid := 0
	for _, u := range found {
		if u.IsValid {
			valid++
		}
	}

	return ExtractionResult{
		URLs:              found,
		TotalFound:        len(found) + duplicates,
		ValidURLs:         valid,
		DuplicatesRemoved: duplicates,
	}
}

// preprocess grows the text with link targets extracted from rich formats so
// the generic scan picks them up.
func preprocess(text string) string {
	processed := htmlEntityReplacer.Replace(text)

	if strings.Contains(processed, `\field`) {
		for _, cap := range rtfLinkRe.FindAllStringSubmatch(processed, -1) {
			processed += "\n" + cap[1]
		}
	}

	for _, cap := range markdownRe.FindAllStringSubmatch(processed, -1) {
		processed += "\n" + cap[2]
	}

	for _, cap := range anchorRe.FindAllStringSubmatch(processed, -1) {
		processed += "\n" + cap[1]
	}

	if decoded, err := url.PathUnescape(processed); err == nil {
		processed = decoded
	}

	return processed
}

// Clean canonicalizes a URL: tracking parameters are dropped (remaining pair
// order preserved) and known short forms are expanded. Clean is idempotent.
func Clean(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if parsed.RawQuery != "" {
		var kept []string
		for _, pair := range strings.Split(parsed.RawQuery, "&") {
			name := pair
			if idx := strings.Index(pair, "="); idx >= 0 {
				name = pair[:idx]
			}
			if !trackingParams[name] {
				kept = append(kept, pair)
			}
		}
		parsed.RawQuery = strings.Join(kept, "&")
	}

	return expandShortened(parsed.String()), nil
}

func tryClean(rawURL string) (string, bool) {
	cleaned, err := Clean(rawURL)
	if err != nil {
		return rawURL, false
	}
	return cleaned, true
}

// expandShortened rewrites the short URL forms that can be expanded without a
// network round trip. Generic shorteners (bit.ly, t.co, vm.tiktok.com, ...)
// are returned untouched; the extractor binary resolves those itself.
func expandShortened(u string) string {
	if rest, ok := cutAfter(u, "youtu.be/"); ok {
		return "https://www.youtube.com/watch?v=" + firstSegment(rest)
	}

	if strings.Contains(u, "youtube.com/shorts/") {
		if rest, ok := cutAfter(u, "shorts/"); ok {
			return "https://www.youtube.com/watch?v=" + firstSegment(rest)
		}
	}

	if strings.Contains(u, "instagr.am/") {
		return strings.Replace(u, "instagr.am/", "instagram.com/", 1)
	}

	return u
}

func cutAfter(s, marker string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", false
	}
	return s[idx+len(marker):], true
}

// firstSegment strips everything after the first '?' or '&'
func firstSegment(s string) string {
	if idx := strings.IndexAny(s, "?&"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// DetectPlatform classifies a URL against the ordered platform rule list
func DetectPlatform(u string) Platform {
	for _, pattern := range platformPatterns {
		if pattern.re.MatchString(u) {
			return pattern.platform
		}
	}
	return PlatformGeneric
}

// DetectPlaylist reports whether the URL refers to a collection of videos
// rather than a single one.
func DetectPlaylist(u string) bool {
	if strings.Contains(u, "youtube.com") {
		if strings.Contains(u, "list=") || strings.Contains(u, "playlist") {
			return true
		}
		if strings.Contains(u, "/channel/") || strings.Contains(u, "/c/") || strings.Contains(u, "/@") {
			return true
		}
	}

	if strings.Contains(u, "vimeo.com") &&
		(strings.Contains(u, "/showcase/") || strings.Contains(u, "/album/")) {
		return true
	}

	if strings.Contains(u, "tiktok.com") &&
		strings.Contains(u, "/@") && !strings.Contains(u, "/video/") {
		return true
	}

	if strings.Contains(u, "twitch.tv") && strings.Contains(u, "/collection/") {
		return true
	}

	return false
}

// Validate checks that the URL parses, carries an http or https scheme and a
// non-empty host.
func Validate(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// ExtractVideoID pulls the 11-character YouTube video id out of watch or
// youtu.be URLs. Returns "" when the URL carries no recognizable id.
func ExtractVideoID(u string) string {
	if rest, ok := cutAfter(u, "v="); ok {
		id := rest
		if idx := strings.Index(id, "&"); idx >= 0 {
			id = id[:idx]
		}
		if len(id) == 11 {
			return id
		}
		return ""
	}
	if rest, ok := cutAfter(u, "youtu.be/"); ok {
		id := rest
		if idx := strings.Index(id, "?"); idx >= 0 {
			id = id[:idx]
		}
		if len(id) == 11 {
			return id
		}
	}
	return ""
}
