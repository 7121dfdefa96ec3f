package security

// Package security enforces the network and filesystem policies applied
// before any child process is spawned: a host allowlist for download URLs and
// a traversal-rejecting path sanitizer.

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path contains a parent-directory component
var ErrPathTraversal = errors.New("parent directory traversal not allowed")

// Hosts the orchestrator is allowed to hand to the extractor. Matching is by
// suffix so subdomains pass. Dailymotion is allowed here even though the URL
// pipeline classifies it as generic.
var networkAllowlist = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
}

// ValidateNetworkAccess reports whether the URL's host is allowlisted.
// Unparseable URLs and URLs without a host are rejected.
func ValidateNetworkAccess(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "" {
		return false
	}
	for _, allowed := range networkAllowlist {
		if strings.HasSuffix(host, allowed) {
			return true
		}
	}
	return false
}

// SanitizePath normalizes a path, dropping "." components and rejecting any
// ".." component. Absolute roots and drive prefixes pass through.
func SanitizePath(path string) (string, error) {
	volume := filepath.VolumeName(path)
	rest := path[len(volume):]

	sanitized := volume
	if strings.HasPrefix(rest, string(filepath.Separator)) || strings.HasPrefix(rest, "/") {
		sanitized += string(filepath.Separator)
	}

	var parts []string
	for _, component := range strings.FieldsFunc(rest, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	}) {
		switch component {
		case ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrPathTraversal, path)
		default:
			parts = append(parts, component)
		}
	}

	return sanitized + filepath.Join(parts...), nil
}
