// Package ytdlp implements the listing and detail providers by shelling out
// to the yt-dlp extractor.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*Client)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithSleepInterval sets the inter-request delay yt-dlp applies itself, in
// seconds (base and jittered maximum). The extractor sleeps between its own
// requests so the remote service is never hammered.
func WithSleepInterval(base, max int) Option {
	return func(c *Client) {
		c.sleepBase = base
		c.sleepMax = max
	}
}

// Client wraps the yt-dlp command-line extractor.
type Client struct {
	binary    string
	sleepBase int
	sleepMax  int
	logger    *zap.Logger
}

// New constructs a Client using defaults.
func New(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		binary:    "yt-dlp",
		sleepBase: 5,
		sleepMax:  15,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing enumerates one channel category with a flat (no per-video fetch)
// extraction. Entries yt-dlp reports as null are dropped.
func (c *Client) Listing(ctx context.Context, channelURL, category string) ([]provider.Entry, error) {
	target := strings.TrimSuffix(channelURL, "/") + "/" + category
	out, err := c.run(ctx, "--flat-playlist", target)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", target, err)
	}

	var payload struct {
		Entries []*provider.Entry `json:"entries"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", target, err)
	}

	entries := make([]provider.Entry, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Detail runs a full extraction for one video.
func (c *Client) Detail(ctx context.Context, videoID string) (provider.Detail, error) {
	url := "https://www.youtube.com/watch?v=" + videoID
	out, err := c.run(ctx, "--skip-download", url)
	if err != nil {
		return provider.Detail{}, fmt.Errorf("detail %s: %w", videoID, err)
	}

	var detail provider.Detail
	if err := json.Unmarshal(out, &detail); err != nil {
		return provider.Detail{}, fmt.Errorf("decode detail for %s: %w", videoID, err)
	}
	return detail, nil
}

func (c *Client) run(ctx context.Context, extra ...string) ([]byte, error) {
	args := []string{
		"--dump-single-json",
		"--quiet",
		"--no-warnings",
		"--retries", "3",
		"--sleep-interval", fmt.Sprintf("%d", c.sleepBase),
		"--max-sleep-interval", fmt.Sprintf("%d", c.sleepMax),
	}
	args = append(args, extra...)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running extractor", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", c.binary, err, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// ErrBinaryMissing indicates yt-dlp is not installed on this host.
var ErrBinaryMissing = errors.New("yt-dlp binary not found")

// CheckBinary verifies the extractor is available before a run starts.
func (c *Client) CheckBinary(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBinaryMissing, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
