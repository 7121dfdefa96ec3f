package download

import (
	"strconv"
	"strings"
)

// ProgressTick is one parsed extractor progress line
type ProgressTick struct {
	Percent         float64
	Speed           string
	ETA             string
	DownloadedBytes int64
	TotalBytes      int64
}

// ParseProgressLine parses one line of extractor stdout. A progress tick is
// any line containing both the "[download]" marker and a percent sign; every
// other line is ignored. The parser is total: no input produces an error.
//
// Example: "[download]  19.1% of   10.44MiB at   41.49MiB/s ETA 00:00"
func ParseProgressLine(line string) (ProgressTick, bool) {
	if !strings.Contains(line, "[download]") || !strings.Contains(line, "%") {
		return ProgressTick{}, false
	}

	var tick ProgressTick

	// First numeric run up to the percent sign, clamped to [0,100]
	if start := strings.IndexFunc(line, isDigit); start >= 0 {
		if end := strings.Index(line[start:], "%"); end >= 0 {
			if percent, err := strconv.ParseFloat(strings.TrimSpace(line[start:start+end]), 64); err == nil {
				if percent > 100 {
					percent = 100
				}
				tick.Percent = percent
			}
		}
	}

	// Total size lives between " of " and " at "; a leading "~ " marks an
	// estimate and is stripped.
	if ofPos := strings.Index(line, " of "); ofPos >= 0 {
		afterOf := line[ofPos+4:]
		if sizeEnd := strings.Index(afterOf, " at "); sizeEnd >= 0 {
			sizeStr := strings.TrimPrefix(strings.TrimSpace(afterOf[:sizeEnd]), "~ ")
			if total, ok := parseSize(sizeStr); ok {
				tick.TotalBytes = total
				if tick.Percent > 0 {
					tick.DownloadedBytes = int64(float64(total) * tick.Percent / 100.0)
				}
			}
		}
	}

	if atPos := strings.Index(line, " at "); atPos >= 0 {
		afterAt := line[atPos+4:]
		if speedEnd := strings.Index(afterAt, " ETA "); speedEnd >= 0 {
			speed := strings.TrimSpace(afterAt[:speedEnd])
			if speed != "Unknown B/s" && speed != "" {
				tick.Speed = speed
			}
		}
	}

	if etaPos := strings.Index(line, "ETA "); etaPos >= 0 {
		eta := strings.TrimSpace(line[etaPos+4:])
		if eta != "Unknown" && eta != "" {
			tick.ETA = eta
		}
	}

	return tick, true
}

// ParseDestination extracts the output path from the extractor's
// "[download] Destination: <path>" line.
func ParseDestination(line string) (string, bool) {
	const marker = "[download] Destination: "
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	path := strings.TrimSpace(line[idx+len(marker):])
	return path, path != ""
}

// Size units the extractor prints; binary suffixes use 1024 multipliers,
// decimal ones 1000. Longest suffixes first so "MiB" is not matched as "B".
var sizeUnits = []struct {
	suffix     string
	multiplier float64
}{
	{"GiB", 1024 * 1024 * 1024},
	{"MiB", 1024 * 1024},
	{"KiB", 1024},
	{"GB", 1000 * 1000 * 1000},
	{"MB", 1000 * 1000},
	{"KB", 1000},
	{"B", 1},
}

func parseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	for _, unit := range sizeUnits {
		if number, ok := strings.CutSuffix(s, unit.suffix); ok {
			value, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
			if err != nil {
				return 0, false
			}
			return int64(value * unit.multiplier), true
		}
	}
	return 0, false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
