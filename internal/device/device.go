// Package device derives a device fingerprint from request headers so
// every movement records who submitted it.
package device

import (
	"net/http"
	"strings"
	"time"

	"github.com/sitestock/sitestock-backend/pkg/types"
)

const (
	headerPlatform   = "X-Device-Platform"
	headerResolution = "X-Screen-Resolution"
	headerTimezone   = "X-Timezone"
)

// FromRequest captures the submitting device from request headers.
// Fields the client did not send fall back to "Unknown".
func FromRequest(r *http.Request) types.DeviceInfo {
	ua := r.UserAgent()

	info := types.DeviceInfo{
		UserAgent:        orUnknown(ua),
		Platform:         orUnknown(r.Header.Get(headerPlatform)),
		ScreenResolution: orUnknown(r.Header.Get(headerResolution)),
		Browser:          detectBrowser(ua),
		OSName:           detectOS(ua),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Timezone:         orUnknown(r.Header.Get(headerTimezone)),
		Language:         orUnknown(primaryLanguage(r.Header.Get("Accept-Language"))),
	}
	return info
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	case strings.Contains(ua, "Edge"):
		return "Edge"
	default:
		return types.DeviceUnknown
	}
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return types.DeviceUnknown
	}
}

// primaryLanguage takes the first entry of an Accept-Language list,
// stripping any quality weight.
func primaryLanguage(header string) string {
	if header == "" {
		return ""
	}
	first := header
	if idx := strings.IndexByte(first, ','); idx >= 0 {
		first = first[:idx]
	}
	if idx := strings.IndexByte(first, ';'); idx >= 0 {
		first = first[:idx]
	}
	return strings.TrimSpace(first)
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return types.DeviceUnknown
	}
	return v
}
