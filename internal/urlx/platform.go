package urlx

import "regexp"

// Platform tags the hosting service a URL belongs to
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformVimeo     Platform = "vimeo"
	PlatformTwitch    Platform = "twitch"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformGeneric   Platform = "generic"
)

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

type platformPattern struct {
	platform Platform
	re       *regexp.Regexp
}

// Ordered rule list; first match wins. Dailymotion intentionally has no
// pattern and classifies as generic even though the network policy allows it.
var platformPatterns = []platformPattern{
	{PlatformYouTube, regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`)},
	{PlatformYouTube, regexp.MustCompile(`youtube\.com/playlist\?list=([a-zA-Z0-9_-]+)`)},
	{PlatformVimeo, regexp.MustCompile(`vimeo\.com/(?:channels/[^/]+/)?(?:groups/[^/]+/videos/)?(\d+)`)},
	{PlatformTwitch, regexp.MustCompile(`twitch\.tv/videos/(\d+)`)},
	{PlatformTwitch, regexp.MustCompile(`twitch\.tv/[^/]+/clip/([a-zA-Z0-9_-]+)`)},
	{PlatformTikTok, regexp.MustCompile(`tiktok\.com/@[\w.-]+/video/(\d+)`)},
	{PlatformTikTok, regexp.MustCompile(`vm\.tiktok\.com/([a-zA-Z0-9]+)`)},
	{PlatformInstagram, regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([a-zA-Z0-9_-]+)`)},
	{PlatformTwitter, regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status/(\d+)`)},
	{PlatformFacebook, regexp.MustCompile(`facebook\.com/.*?/videos/(\d+)`)},
}

// SupportedPlatforms returns the distinct platform tags the extractor can
// classify, generic included.
func SupportedPlatforms() []Platform {
	seen := make(map[Platform]bool)
	var platforms []Platform
	for _, p := range platformPatterns {
		if !seen[p.platform] {
			seen[p.platform] = true
			platforms = append(platforms, p.platform)
		}
	}
	platforms = append(platforms, PlatformGeneric)
	return platforms
}
