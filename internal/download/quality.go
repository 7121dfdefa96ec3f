package download

import (
	"strings"
	"unicode"
)

// Heights recognized in quality strings, largest first so "1440" is not
// shadowed by its "144" substring.
var qualityHeights = []string{"2160", "1440", "1080", "720", "480", "360", "240", "144"}

// ResolutionTag maps a human-friendly quality string to the tag used in file
// names: a height, "best"/"worst", or the lowercased alphanumeric residue of
// the input. Matching is case-insensitive substring matching, so "4K" and
// "2160p" land on the same tag. The mapping is idempotent.
func ResolutionTag(quality string) string {
	q := strings.ToLower(quality)

	if strings.Contains(q, "2160") || strings.Contains(q, "4k") {
		return "2160"
	}
	for _, h := range qualityHeights[1:] {
		if strings.Contains(q, h) {
			return h
		}
	}

	if strings.Contains(q, "best") || strings.Contains(q, "highest") {
		return "best"
	}
	if strings.Contains(q, "worst") || strings.Contains(q, "lowest") {
		return "worst"
	}

	var b strings.Builder
	for _, r := range q {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QualitySuffix is the filename suffix appended to the extractor's output
// template, e.g. "_1080".
func QualitySuffix(quality string) string {
	return "_" + ResolutionTag(quality)
}

// QualitySelector translates a quality string into a stream-selection
// expression for the extractor: best[height<=N] for numeric heights, the bare
// best/worst sentinels, or the raw string when nothing matches.
func QualitySelector(quality string) string {
	q := strings.ToLower(quality)

	if strings.Contains(q, "2160") || strings.Contains(q, "4k") {
		return "best[height<=2160]"
	}
	for _, h := range qualityHeights[1:] {
		if strings.Contains(q, h) {
			return "best[height<=" + h + "]"
		}
	}

	if strings.Contains(q, "best") || strings.Contains(q, "highest") {
		return "best"
	}
	if strings.Contains(q, "worst") || strings.Contains(q, "lowest") {
		return "worst"
	}

	return quality
}
