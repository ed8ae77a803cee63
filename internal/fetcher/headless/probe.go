// Package headless extracts publish timestamps from rendered video pages
// using headless Chrome.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrNoPublishTime indicates no selector yielded a value on any attempt.
var ErrNoPublishTime = errors.New("no selector yielded a publish time")

// DefaultSelectors is the known set of page locations exposing the publish
// time, in priority order. The page structure shifts over time; nth-child
// variants cover the observed layouts.
var DefaultSelectors = []string{
	"#watch7-content > span:nth-child(22) > meta:nth-child(2)",
	"#watch7-content > span:nth-child(23) > meta:nth-child(2)",
	"#watch7-content > meta:nth-child(19)",
	"#watch7-content > meta:nth-child(20)",
	"#watch7-content > meta:nth-child(21)",
}

// Config controls the probe.
type Config struct {
	Selectors         []string
	Attempts          int
	RetryDelay        time.Duration
	NavigationTimeout time.Duration
	UserAgent         string
}

// Probe renders a page and reads the first non-empty content attribute found
// at the configured selectors.
type Probe struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a probe backed by chromedp.
func New(cfg Config, logger *zap.Logger) (*Probe, error) {
	if len(cfg.Selectors) == 0 {
		cfg.Selectors = DefaultSelectors
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Probe{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
		sleep:       sleepContext,
	}, nil
}

// Close cancels the allocator context.
func (p *Probe) Close() {
	p.allocCancel()
}

// FirstContent renders pageURL and tries each selector in priority order,
// returning the first non-empty content attribute. The whole render+extract
// attempt is retried with a fixed delay; exhausting every selector on every
// attempt is a tier failure for the caller.
func (p *Probe) FirstContent(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.Attempts; attempt++ {
		if attempt > 0 {
			p.logger.Info("retrying page probe",
				zap.String("url", pageURL),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", p.cfg.Attempts),
			)
			if err := p.sleep(ctx, p.cfg.RetryDelay); err != nil {
				return "", err
			}
		}
		value, err := p.probeOnce(ctx, pageURL)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		p.logger.Warn("page probe attempt failed",
			zap.String("url", pageURL), zap.Error(err))
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrNoPublishTime, p.cfg.Attempts, lastErr)
}

func (p *Probe) probeOnce(ctx context.Context, pageURL string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(p.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, p.cfg.NavigationTimeout)
	defer cancel()

	stopForward := forwardCancel(ctx, cancel)
	defer stopForward()

	if err := chromedp.Run(taskCtx,
		p.networkSetupAction(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	for _, selector := range p.cfg.Selectors {
		var value string
		if err := chromedp.Run(taskCtx, chromedp.Evaluate(contentScript(selector), &value)); err != nil {
			p.logger.Debug("selector evaluation failed",
				zap.String("selector", selector), zap.Error(err))
			continue
		}
		if value == "" {
			p.logger.Debug("selector yielded no value", zap.String("selector", selector))
			continue
		}
		p.logger.Debug("selector yielded publish time",
			zap.String("selector", selector), zap.String("value", value))
		return value, nil
	}
	return "", ErrNoPublishTime
}

func (p *Probe) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if p.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(p.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func contentScript(selector string) string {
	return fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? (el.getAttribute("content") || "") : ""; })()`,
		selector,
	)
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
