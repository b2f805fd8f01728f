// Package device turns raw User-Agent strings into human-readable device
// names for login records, and computes stable device fingerprints so a
// session can be tied to the browser that opened it without storing the raw
// user agent.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. When disabled it returns empty
// fingerprints and comparisons never report drift.
type Service struct {
	enabled bool
}

// NewService constructs a device Service.
func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a user agent as "Browser on Platform" for display
// in login notifications and session listings.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.Join(strings.Fields(browser+" on "+platform), " ")
}

// ComputeFingerprint hashes the stable parts of a user agent: browser name,
// major version, OS and platform. Minor and patch version bumps from browser
// auto-updates do not change the fingerprint; a major version change does.
func (s *Service) ComputeFingerprint(raw string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(raw)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")

	canonical := strings.Join([]string{browser, major, ua.OSInfo().Name, ua.Platform()}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether a stored fingerprint matches the
// current one. Drift means both were computed and they differ; an empty
// fingerprint on either side yields neither a match nor drift.
func (s *Service) CompareFingerprints(stored, current string) (matched, drift bool) {
	if stored == "" || current == "" {
		return false, false
	}
	if stored == current {
		return true, false
	}
	return false, true
}
