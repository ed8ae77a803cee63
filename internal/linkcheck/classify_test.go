package linkcheck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyWatchPageHTTPStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		ok     bool
		reason string
	}{
		{name: "not found", status: 404, ok: false, reason: "video not found (deleted)"},
		{name: "server error", status: 503, ok: false, reason: "server error (503)"},
		{name: "other status", status: 403, ok: false, reason: "HTTP 403"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, reason := classifyWatchPage(tt.status, nil)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestClassifyWatchPagePlayabilityStatus(t *testing.T) {
	t.Parallel()

	loginPage := []byte(`{"playabilityStatus":{"contextParams":"x","status":"LOGIN_REQUIRED"}}`)
	ok, reason := classifyWatchPage(200, loginPage)
	require.False(t, ok)
	require.Contains(t, reason, "login required")

	errorPage := []byte(`{"playabilityStatus":{"status":"ERROR"}}`)
	ok, reason = classifyWatchPage(200, errorPage)
	require.False(t, ok)
	require.Contains(t, reason, "possibly deleted")
}

func TestClassifyWatchPageMembersOnlyIsNotBroken(t *testing.T) {
	t.Parallel()

	page := []byte(`{"playabilityStatus":{"status":"UNPLAYABLE"}} this is a members-only video`)
	ok, reason := classifyWatchPage(200, page)
	require.True(t, ok)
	require.Empty(t, reason)

	page = []byte(`{"playabilityStatus":{"status":"UNPLAYABLE"}} no hint why`)
	ok, reason = classifyWatchPage(200, page)
	require.False(t, ok)
	require.Contains(t, reason, "unplayable")
}

func TestClassifyWatchPageTextMarkers(t *testing.T) {
	t.Parallel()

	ok, reason := classifyWatchPage(200, []byte("<title>Video unavailable</title>"))
	require.False(t, ok)
	require.Contains(t, reason, "video deleted")

	ok, reason = classifyWatchPage(200, []byte("This video is private"))
	require.False(t, ok)
	require.Contains(t, reason, "private video")

	ok, reason = classifyWatchPage(200, []byte("not available in your country"))
	require.False(t, ok)
	require.Contains(t, reason, "region blocked")
}

func TestClassifyWatchPagePlayerDetection(t *testing.T) {
	t.Parallel()

	ok, reason := classifyWatchPage(200, []byte(`<ytd-watch-flexy></ytd-watch-flexy>`))
	require.True(t, ok)
	require.Empty(t, reason)

	ok, reason = classifyWatchPage(200, []byte(`<html><body>nothing here</body></html>`))
	require.False(t, ok)
	require.Equal(t, "video player not found", reason)
}

func TestIsYouTubeURL(t *testing.T) {
	t.Parallel()

	require.True(t, isYouTubeURL("https://www.youtube.com/watch?v=abc"))
	require.True(t, isYouTubeURL("https://youtu.be/abc"))
	require.False(t, isYouTubeURL("https://example.com/video"))
}
