// Package linkcheck probes archived video URLs and classifies availability.
package linkcheck

import (
	"fmt"
	"regexp"
	"strings"
)

// playabilityPattern finds the player status embedded in a watch page. It is
// the most reliable unavailability signal the page exposes.
var playabilityPattern = regexp.MustCompile(`"playabilitystatus":\{.*?"status":"([^"]*?)"`)

var (
	memberMarkers = []string{
		"members-only",
		"membership",
		"メンバー限定",
		"メンバーシップ",
	}
	deletedMarkers = []string{
		"video unavailable",
		"this video is no longer available",
		"this video has been removed",
		"video removed",
		"deleted video",
	}
	privateMarkers = []string{
		"this video is private",
		"private video",
		"this video is unavailable",
	}
	regionMarkers = []string{
		"not available in your country",
		"video not available",
		"blocked in your country",
	}
	playerMarkers = []string{
		"ytd-watch-flexy",
		"watch-main-col",
		"player-wrap",
	}
)

// classifyWatchPage inspects a fetched watch page and reports whether the
// video is reachable, with a reason when it is not.
func classifyWatchPage(statusCode int, body []byte) (bool, string) {
	if statusCode == 404 {
		return false, "video not found (deleted)"
	}
	if statusCode >= 500 {
		return false, fmt.Sprintf("server error (%d)", statusCode)
	}
	if statusCode != 200 {
		return false, fmt.Sprintf("HTTP %d", statusCode)
	}

	content := strings.ToLower(string(body))

	if match := playabilityPattern.FindStringSubmatch(content); match != nil {
		status := strings.ToUpper(match[1])
		switch status {
		case "LOGIN_REQUIRED":
			return false, fmt.Sprintf("private video (login required): status=%s", status)
		case "UNPLAYABLE":
			// Membership-gated videos report UNPLAYABLE to logged-out
			// clients but are not broken links.
			if containsAny(content, memberMarkers) {
				return true, ""
			}
			return false, fmt.Sprintf("unplayable video: status=%s", status)
		case "ERROR":
			return false, fmt.Sprintf("video error (possibly deleted): status=%s", status)
		}
	}

	if marker := firstMatch(content, deletedMarkers); marker != "" {
		return false, "video deleted: " + marker
	}
	if marker := firstMatch(content, privateMarkers); marker != "" {
		return false, "private video: " + marker
	}
	if marker := firstMatch(content, regionMarkers); marker != "" {
		return false, "region blocked: " + marker
	}

	if containsAny(content, playerMarkers) {
		return true, ""
	}
	if !strings.Contains(content, "player") && !strings.Contains(content, "video") {
		return false, "video player not found"
	}
	return true, ""
}

func containsAny(content string, markers []string) bool {
	return firstMatch(content, markers) != ""
}

func firstMatch(content string, markers []string) string {
	for _, marker := range markers {
		if strings.Contains(content, marker) {
			return marker
		}
	}
	return ""
}

func isYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}
