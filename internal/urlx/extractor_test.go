package urlx

import (
	"strings"
	"testing"
)

func TestExtract_YouTube(t *testing.T) {
	text := "Check this out: https://www.youtube.com/watch?v=dQw4w9WgXcQ and also https://youtu.be/jNQXAC9IVRw"

	result := Extract(text)

	if len(result.URLs) != 2 {
		t.Fatalf("Expected 2 URLs, got %d", len(result.URLs))
	}
	for _, u := range result.URLs {
		if u.Platform != PlatformYouTube {
			t.Errorf("Expected youtube platform for %s, got %s", u.URL, u.Platform)
		}
		if !u.IsValid {
			t.Errorf("Expected %s to be valid", u.URL)
		}
	}
}

func TestExtract_MixedPlatforms(t *testing.T) {
	text := `
		YouTube: https://www.youtube.com/watch?v=dQw4w9WgXcQ
		Vimeo: https://vimeo.com/123456789
		TikTok: https://tiktok.com/@user/video/1234567890
	`

	result := Extract(text)

	if len(result.URLs) != 3 {
		t.Fatalf("Expected 3 URLs, got %d", len(result.URLs))
	}
	if result.ValidURLs != 3 {
		t.Errorf("Expected 3 valid URLs, got %d", result.ValidURLs)
	}
}

func TestExtract_DuplicatesByCanonicalForm(t *testing.T) {
	// youtu.be short form expands to the watch URL and must collapse with it
	text := "see https://www.youtube.com/watch?v=dQw4w9WgXcQ and https://youtu.be/dQw4w9WgXcQ"

	result := Extract(text)

	if len(result.URLs) != 1 {
		t.Fatalf("Expected 1 URL after dedup, got %d: %+v", len(result.URLs), result.URLs)
	}
	if result.URLs[0].URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("Unexpected canonical URL: %s", result.URLs[0].URL)
	}
	if result.DuplicatesRemoved != 1 {
		t.Errorf("Expected duplicates_removed=1, got %d", result.DuplicatesRemoved)
	}
}

func TestExtract_TrackingParamsRemoved(t *testing.T) {
	text := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&utm_source=share&fbclid=12345"

	result := Extract(text)

	if len(result.URLs) != 1 {
		t.Fatalf("Expected 1 URL, got %d", len(result.URLs))
	}
	u := result.URLs[0].URL
	if strings.Contains(u, "utm_source") || strings.Contains(u, "fbclid") {
		t.Errorf("Tracking parameters survived cleaning: %s", u)
	}
	if !strings.Contains(u, "v=dQw4w9WgXcQ") {
		t.Errorf("Content parameter lost during cleaning: %s", u)
	}
}

func TestExtract_Empty(t *testing.T) {
	result := Extract("")

	if len(result.URLs) != 0 || result.TotalFound != 0 || result.DuplicatesRemoved != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestExtract_CountInvariant(t *testing.T) {
	texts := []string{
		"",
		"no urls here",
		"https://youtu.be/dQw4w9WgXcQ https://youtu.be/dQw4w9WgXcQ",
		"a https://vimeo.com/1 b https://vimeo.com/2 c https://vimeo.com/1",
		"<a href=\"https://www.youtube.com/watch?v=dQw4w9WgXcQ\">link</a>",
		"[clip](https://www.twitch.tv/videos/123456)",
	}

	for _, text := range texts {
		result := Extract(text)
		if result.TotalFound != len(result.URLs)+result.DuplicatesRemoved {
			t.Errorf("total_found invariant violated for %q: %d != %d + %d",
				text, result.TotalFound, len(result.URLs), result.DuplicatesRemoved)
		}
		seen := make(map[string]bool)
		for _, u := range result.URLs {
			if seen[u.URL] {
				t.Errorf("duplicate canonical URL %s in result for %q", u.URL, text)
			}
			seen[u.URL] = true
		}
	}
}

func TestExtract_MarkdownAndAnchors(t *testing.T) {
	text := `[watch this](https://vimeo.com/123456789) and <a href="https://www.twitch.tv/videos/987654">vod</a>`

	result := Extract(text)

	if len(result.URLs) != 2 {
		t.Fatalf("Expected 2 URLs, got %d: %+v", len(result.URLs), result.URLs)
	}
}

func TestExtract_HTMLEntities(t *testing.T) {
	text := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&amp;t=42"

	result := Extract(text)

	if len(result.URLs) != 1 {
		t.Fatalf("Expected 1 URL, got %d", len(result.URLs))
	}
	if !strings.Contains(result.URLs[0].URL, "t=42") {
		t.Errorf("Entity-encoded parameter lost: %s", result.URLs[0].URL)
	}
}

func TestClean_Idempotent(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=10",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://vimeo.com/123456789?utm_source=x",
		"https://instagr.am/p/abc123/",
		"https://bit.ly/3xyzabc",
		"https://example.com/path?a=1&b=2&fbclid=zzz",
	}

	for _, u := range urls {
		once, err := Clean(u)
		if err != nil {
			t.Fatalf("Clean(%q) error: %v", u, err)
		}
		twice, err := Clean(once)
		if err != nil {
			t.Fatalf("Clean(Clean(%q)) error: %v", u, err)
		}
		if once != twice {
			t.Errorf("Clean not idempotent for %q: %q != %q", u, once, twice)
		}
	}
}

func TestClean_ShortFormExpansion(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=30", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://instagr.am/p/abc/", "https://instagram.com/p/abc/"},
		// not resolved over the network
		{"https://bit.ly/3xyzabc", "https://bit.ly/3xyzabc"},
		{"https://t.co/abcdef", "https://t.co/abcdef"},
		{"https://vm.tiktok.com/ZMabc/", "https://vm.tiktok.com/ZMabc/"},
	}

	for _, test := range tests {
		got, err := Clean(test.in)
		if err != nil {
			t.Fatalf("Clean(%q) error: %v", test.in, err)
		}
		if got != test.expected {
			t.Errorf("Clean(%q) = %q, expected %q", test.in, got, test.expected)
		}
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		platform Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"https://www.youtube.com/playlist?list=PLabc", PlatformYouTube},
		{"https://vimeo.com/123456789", PlatformVimeo},
		{"https://www.twitch.tv/videos/123456", PlatformTwitch},
		{"https://www.twitch.tv/streamer/clip/FunnyClip-abc", PlatformTwitch},
		{"https://www.tiktok.com/@user/video/123456", PlatformTikTok},
		{"https://instagram.com/reel/abc123/", PlatformInstagram},
		{"https://twitter.com/user/status/123456", PlatformTwitter},
		{"https://x.com/user/status/123456", PlatformTwitter},
		{"https://www.facebook.com/page/videos/123456", PlatformFacebook},
		{"https://www.dailymotion.com/video/x123", PlatformGeneric},
		{"https://example.com/video.mp4", PlatformGeneric},
	}

	for _, test := range tests {
		if got := DetectPlatform(test.url); got != test.platform {
			t.Errorf("DetectPlatform(%q) = %s, expected %s", test.url, got, test.platform)
		}
	}
}

func TestDetectPlaylist(t *testing.T) {
	tests := []struct {
		url      string
		playlist bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc", true},
		{"https://www.youtube.com/playlist?list=PLabc", true},
		{"https://www.youtube.com/channel/UCabc", true},
		{"https://www.youtube.com/@somecreator", true},
		{"https://vimeo.com/showcase/123", true},
		{"https://vimeo.com/album/456", true},
		{"https://vimeo.com/123456789", false},
		{"https://www.tiktok.com/@user", true},
		{"https://www.tiktok.com/@user/video/123", false},
		{"https://www.twitch.tv/collection/abc", true},
		{"https://www.twitch.tv/videos/123", false},
	}

	for _, test := range tests {
		if got := DetectPlaylist(test.url); got != test.playlist {
			t.Errorf("DetectPlaylist(%q) = %v, expected %v", test.url, got, test.playlist)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://youtube.com/watch?v=x", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
		{"https://", false},
	}

	for _, test := range tests {
		if got := Validate(test.url); got != test.valid {
			t.Errorf("Validate(%q) = %v, expected %v", test.url, got, test.valid)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url string
		id  string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?t=5", "dQw4w9WgXcQ"},
		{"https://youtu.be/short", ""},
		{"https://vimeo.com/123", ""},
	}

	for _, test := range tests {
		if got := ExtractVideoID(test.url); got != test.id {
			t.Errorf("ExtractVideoID(%q) = %q, expected %q", test.url, got, test.id)
		}
	}
}

func TestSupportedPlatforms(t *testing.T) {
	platforms := SupportedPlatforms()

	if len(platforms) != 8 {
		t.Errorf("Expected 8 platforms, got %d: %v", len(platforms), platforms)
	}
	if platforms[len(platforms)-1] != PlatformGeneric {
		t.Errorf("Expected generic to be last, got %s", platforms[len(platforms)-1])
	}
}
