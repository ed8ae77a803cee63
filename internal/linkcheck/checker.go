package linkcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config controls the checker.
type Config struct {
	// ArchivesDir is scanned for archives_*.json collection files.
	ArchivesDir string
	// Delay spaces out probe requests.
	Delay time.Duration
	// UserAgent overrides the probe browser identity.
	UserAgent string
}

// BrokenLink describes one unreachable archived video.
type BrokenLink struct {
	File       string `json:"file"`
	Title      string `json:"title"`
	VideoURL   string `json:"video_url"`
	UploadDate string `json:"upload_date"`
	Error      string `json:"error"`
}

// Report aggregates one checking pass.
type Report struct {
	CheckDate    string       `json:"check_date"`
	TotalChecked int          `json:"total_checked"`
	BrokenCount  int          `json:"broken_count"`
	BrokenLinks  []BrokenLink `json:"broken_links"`
}

// Checker probes every archived video URL and classifies reachability. It
// reads the persisted collections but never writes them.
type Checker struct {
	cfg       Config
	logger    *zap.Logger
	limiter   *rate.Limiter
	collector *colly.Collector
	now       func() time.Time
}

// New builds a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	collector.ParseHTTPErrorResponse = true
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(15 * time.Second)

	return &Checker{
		cfg:       cfg,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(cfg.Delay), 1),
		collector: collector,
		now:       time.Now,
	}
}

// Run probes every item of every collection under ArchivesDir. On context
// cancellation the report accumulated so far is returned alongside the
// context error so callers can still print partial results.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	report := Report{
		CheckDate:   c.now().Format("2006-01-02 15:04:05"),
		BrokenLinks: []BrokenLink{},
	}

	files, err := c.archiveFiles()
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, fmt.Errorf("no archive files found under %s", c.cfg.ArchivesDir)
	}

	for _, file := range files {
		items, err := loadItems(file)
		if err != nil {
			c.logger.Error("skipping unreadable archive",
				zap.String("file", file), zap.Error(err))
			continue
		}
		name := filepath.Base(file)
		c.logger.Info("archive loaded",
			zap.String("file", name), zap.Int("items", len(items)))

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.TotalChecked++
			if item.VideoURL == "" {
				report.addBroken(name, item, "video URL missing")
				continue
			}
			if err := c.limiter.Wait(ctx); err != nil {
				return report, err
			}

			ok, reason := c.checkURL(item.VideoURL)
			if ok {
				c.logger.Info("link ok",
					zap.String("file", name), zap.String("url", item.VideoURL))
				continue
			}
			c.logger.Warn("link broken",
				zap.String("file", name),
				zap.String("url", item.VideoURL),
				zap.String("reason", reason),
			)
			report.addBroken(name, item, reason)
		}
	}
	return report, nil
}

func (r *Report) addBroken(file string, item archive.Item, reason string) {
	r.BrokenLinks = append(r.BrokenLinks, BrokenLink{
		File:       file,
		Title:      item.Title,
		VideoURL:   item.VideoURL,
		UploadDate: item.UploadDate,
		Error:      reason,
	})
	r.BrokenCount = len(r.BrokenLinks)
}

func (c *Checker) archiveFiles() ([]string, error) {
	pattern := filepath.Join(c.cfg.ArchivesDir, "archives_*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

func loadItems(path string) ([]archive.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var collection archive.Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return collection.Items, nil
}

// checkURL probes one URL. Watch pages get a full fetch so unavailability
// markers in the page body are visible; anything else gets a HEAD request.
func (c *Checker) checkURL(url string) (bool, string) {
	statusCode, body, err := c.fetch(url, isYouTubeURL(url))
	if err != nil {
		if statusCode > 0 {
			return classifyError(statusCode, url)
		}
		return false, fmt.Sprintf("request error: %v", err)
	}
	if isYouTubeURL(url) {
		return classifyWatchPage(statusCode, body)
	}
	if statusCode < 400 {
		return true, ""
	}
	return false, fmt.Sprintf("HTTP %d", statusCode)
}

func classifyError(statusCode int, url string) (bool, string) {
	if isYouTubeURL(url) {
		return classifyWatchPage(statusCode, nil)
	}
	return false, fmt.Sprintf("HTTP %d", statusCode)
}

func (c *Checker) fetch(url string, withBody bool) (int, []byte, error) {
	collector := c.collector.Clone()
	collector.ParseHTTPErrorResponse = true

	var (
		statusCode int
		body       []byte
		fetchErr   error
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "ja-JP,ja;q=0.9,en;q=0.8")
	})
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
			body = r.Body
		}
		fetchErr = err
	})

	var err error
	if withBody {
		err = collector.Visit(url)
	} else {
		err = collector.Head(url)
	}
	if err != nil {
		return statusCode, body, err
	}
	collector.Wait()
	if fetchErr != nil && statusCode == 0 {
		return 0, nil, fetchErr
	}
	return statusCode, body, nil
}
