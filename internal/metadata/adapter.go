package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/model"
	"github.com/grabzilla/grabzilla/internal/urlx"
)

// Extractor invocation constants shared by all metadata queries
const (
	desktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	basicInfoTimeout = 10 * time.Second
	scrapeTimeout    = 10 * time.Second
)

// scrapedTitleRegex pulls the document title out of a watch page
var scrapedTitleRegex = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Adapter queries the extractor binary for per-URL metadata
type Adapter struct {
	log           *logrus.Logger
	extractorPath string
	httpClient    *http.Client
}

// NewAdapter creates a metadata adapter around the extractor binary
func NewAdapter(log *logrus.Logger, extractorPath string) *Adapter {
	return &Adapter{
		log:           log,
		extractorPath: extractorPath,
		httpClient:    &http.Client{Timeout: scrapeTimeout},
	}
}

// extractorJSON mirrors the subset of the extractor's dump-json document the
// adapter consumes.
type extractorJSON struct {
	Title         string  `json:"title"`
	Duration      float64 `json:"duration"`
	Uploader      string  `json:"uploader"`
	Channel       string  `json:"channel"`
	Description   string  `json:"description"`
	Thumbnail     string  `json:"thumbnail"`
	ViewCount     int64   `json:"view_count"`
	UploadDate    string  `json:"upload_date"`
	PlaylistCount int     `json:"playlist_count"`
	Entries       []struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"entries"`
	Formats []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		Resolution string  `json:"resolution"`
		Filesize   int64   `json:"filesize"`
		VCodec     string  `json:"vcodec"`
		ACodec     string  `json:"acodec"`
		ABR        float64 `json:"abr"`
		VBR        float64 `json:"vbr"`
	} `json:"formats"`
}

// GetVideoMetadata fetches full metadata for a URL through the extractor's
// JSON dump. Playlist URLs are resolved flat; single videos explicitly skip
// playlist expansion.
func (a *Adapter) GetVideoMetadata(ctx context.Context, url string) (*model.VideoMetadata, error) {
	args := []string{"--dump-json", "--no-warnings"}
	if urlx.DetectPlaylist(url) {
		args = append(args, "--flat-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	args = append(args,
		"--user-agent", desktopUserAgent,
		"--extractor-retries", "3",
		"--sleep-interval", "1",
		"--max-sleep-interval", "5",
		url,
	)

	output, err := a.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	return parseMetadataJSON(output)
}

// parseMetadataJSON maps one dump-json document to VideoMetadata. For playlist
// dumps the extractor can emit one document per entry; only the first is used.
func parseMetadataJSON(output []byte) (*model.VideoMetadata, error) {
	doc := output
	if idx := bytes.IndexByte(output, '\n'); idx > 0 {
		doc = output[:idx]
	}

	var raw extractorJSON
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("decoding extractor output: %w", err)
	}

	meta := &model.VideoMetadata{
		Title:       raw.Title,
		Uploader:    raw.Uploader,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		ViewCount:   raw.ViewCount,
		UploadDate:  raw.UploadDate,
	}
	if meta.Uploader == "" {
		meta.Uploader = raw.Channel
	}

	switch {
	case raw.PlaylistCount > 0:
		meta.Duration = fmt.Sprintf("%d videos", raw.PlaylistCount)
	case raw.Duration > 0:
		meta.Duration = model.FormatDuration(int64(raw.Duration))
	}

	if meta.Thumbnail == "" && len(raw.Entries) > 0 {
		meta.Thumbnail = raw.Entries[0].Thumbnail
	}

	for _, f := range raw.Formats {
		meta.Formats = append(meta.Formats, model.VideoFormat{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Filesize:   f.Filesize,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			ABR:        f.ABR,
			VBR:        f.VBR,
		})
	}

	return meta, nil
}

// GetBasicVideoInfo fetches a fast preview: a single --print invocation raced
// against scraping the watch page's title tag. When both fail the result is
// synthesized from the video id so the caller always gets something to show.
func (a *Adapter) GetBasicVideoInfo(ctx context.Context, url string) (*model.VideoMetadata, error) {
	printed := make(chan *model.VideoMetadata, 1)
	scraped := make(chan string, 1)

	go func() {
		printed <- a.printBasicInfo(ctx, url)
	}()
	go func() {
		scraped <- a.scrapeTitle(ctx, url)
	}()

	meta := <-printed
	scrapedTitle := <-scraped

	if meta == nil {
		meta = &model.VideoMetadata{}
	}
	if better := preferScrapedTitle(meta.Title, scrapedTitle); better != "" {
		meta.Title = better
	}

	if meta.Title == "" {
		if id := urlx.ExtractVideoID(url); id != "" {
			meta.Title = fmt.Sprintf("YouTube Video (%s)", id)
		} else {
			meta.Title = "Video"
		}
	}
	if meta.Thumbnail == "" {
		if id := urlx.ExtractVideoID(url); id != "" {
			meta.Thumbnail = fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id)
		}
	}

	return meta, nil
}

// printBasicInfo runs the extractor with a pipe-separated print template
func (a *Adapter) printBasicInfo(ctx context.Context, url string) *model.VideoMetadata {
	ctx, cancel := context.WithTimeout(ctx, basicInfoTimeout)
	defer cancel()

	output, err := a.run(ctx, []string{
		"--print", "%(title)s|%(duration)s|%(uploader)s",
		"--no-warnings",
		"--no-playlist",
		"--user-agent", desktopUserAgent,
		url,
	})
	if err != nil {
		a.log.WithError(err).WithField("url", url).Debug("Basic info query failed")
		return nil
	}
	return parseBasicInfo(string(output))
}

// parseBasicInfo splits the "title|duration|uploader" print output
func parseBasicInfo(output string) *model.VideoMetadata {
	line := strings.TrimSpace(output)
	if line == "" {
		return nil
	}
	parts := strings.SplitN(line, "|", 3)

	meta := &model.VideoMetadata{}
	if parts[0] != "NA" {
		meta.Title = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		if seconds, ok := parseSeconds(parts[1]); ok {
			meta.Duration = model.FormatDuration(seconds)
		}
	}
	if len(parts) > 2 && parts[2] != "NA" {
		meta.Uploader = strings.TrimSpace(parts[2])
	}
	return meta
}

func parseSeconds(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return 0, false
	}
	var seconds float64
	if _, err := fmt.Sscanf(s, "%f", &seconds); err != nil || seconds <= 0 {
		return 0, false
	}
	return int64(seconds), true
}

// scrapeTitle fetches the watch page and pulls its title tag
func (a *Adapter) scrapeTitle(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.log.WithError(err).WithField("url", url).Debug("Title scrape failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return ""
	}

	match := scrapedTitleRegex.FindSubmatch(body)
	if match == nil {
		return ""
	}
	title := strings.TrimSpace(string(match[1]))
	title = strings.TrimSuffix(title, " - YouTube")
	return title
}

// preferScrapedTitle picks the scraped page title over the extractor's only
// when it looks like a real video title rather than a site banner.
func preferScrapedTitle(printed, scraped string) string {
	if scraped != "" && len(scraped) > 20 && !strings.Contains(scraped, "YouTube") {
		return scraped
	}
	return printed
}

// ExtractPlaylistVideos resolves a playlist URL to its member video URLs
func (a *Adapter) ExtractPlaylistVideos(ctx context.Context, url string) ([]string, error) {
	output, err := a.run(ctx, []string{
		"--flat-playlist",
		"--get-url",
		"--no-warnings",
		"--user-agent", desktopUserAgent,
		url,
	})
	if err != nil {
		return nil, fmt.Errorf("expanding playlist: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls, nil
}

// run executes the extractor and returns its stdout
func (a *Adapter) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.extractorPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}
