package convert

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo describes a local media file as reported by the prober
type VideoInfo struct {
	Duration   float64 `json:"duration"`
	FileSize   int64   `json:"file_size"`
	BitRate    int64   `json:"bit_rate"`
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
}

// probeOutput mirrors the prober's JSON document
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe inspects a media file with the prober binary
func (d *Driver) Probe(path string) (*VideoInfo, error) {
	if d.probePath == "" {
		return nil, fmt.Errorf("prober is not available")
	}
	return d.probe(path)
}

func (d *Driver) probe(path string) (*VideoInfo, error) {
	cmd := exec.Command(d.probePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running prober: %w", err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding prober output: %w", err)
	}

	info := &VideoInfo{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	info.FileSize, _ = strconv.ParseInt(out.Format.Size, 10, 64)
	info.BitRate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.VideoCodec != "" {
				continue
			}
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			rate := stream.RFrameRate
			if rate == "" || rate == "0/0" {
				rate = stream.AvgFrameRate
			}
			info.FrameRate = parseFrameRate(rate)
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
			}
		}
	}

	return info, nil
}

// parseFrameRate parses the prober's "num/den" rational; zero denominators
// yield zero.
func parseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		value, _ := strconv.ParseFloat(rate, 64)
		return value
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
