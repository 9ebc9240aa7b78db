// Package browser fetches wellness data by driving a headless Chrome session through the platform's
// sign-in form and reading the JSON endpoints from the signed-in page.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/fetch"
	"example.com/wellness/internal/normalize"
	"example.com/wellness/internal/retry"
)

// DefaultSigninURL is the single sign-on form that redirects back to the platform.
const DefaultSigninURL = "https://sso.garmin.com/sso/signin?webhost=https%3A%2F%2Fconnect.garmin.com" +
	"&service=https%3A%2F%2Fconnect.garmin.com&source=https%3A%2F%2Fsso.garmin.com%2Fsso%2Fsignin"

// Config holds the browser session settings.
type Config struct {
	BaseURL     string
	SigninURL   string
	Email       string
	Password    string
	DisplayName string
	// ShowUI runs Chrome with a visible window.
	ShowUI bool
	// Attempts bounds sign-in plus wellness load tries. RetryDelay grows linearly between them.
	Attempts   int
	RetryDelay time.Duration
	// SettleDelay is waited after submitting the form, multiplied by the attempt number.
	SettleDelay time.Duration
	// PageTimeout bounds every browser round trip.
	PageTimeout time.Duration
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher implements pipeline.Fetcher and pipeline.Reclassifier over a browser session.
type Fetcher struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	tab      context.Context
	closeTab context.CancelFunc
}

// New prepares a Fetcher. Chrome starts lazily on first use.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.SigninURL == "" {
		cfg.SigninURL = DefaultSigninURL
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 5 * time.Second
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	f := &Fetcher{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Fetcher) closeLocked() {
	if f.closeTab != nil {
		f.closeTab()
	}
	f.tab, f.closeTab = nil, nil
}

func allocatorOptions(showUI bool) []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !showUI),
		chromedp.Flag("no-sandbox", true),
	)
}

// signIn starts a fresh browser and submits the sign-in form. The wait after submit grows with attempt.
func (f *Fetcher) signIn(ctx context.Context, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(f.cfg.ShowUI)...)
	tab, tabCancel := chromedp.NewContext(allocCtx)
	f.tab = tab
	f.closeTab = func() { tabCancel(); allocCancel() }

	// The browser lives as long as the context of the first Run, so start it on the tab itself.
	if err := chromedp.Run(tab); err != nil {
		f.closeLocked()
		return fmt.Errorf("start browser: %w", err)
	}

	f.logger.Info("signing in", "attempt", attempt)
	return f.runLocked(ctx,
		chromedp.Navigate(f.cfg.SigninURL),
		chromedp.WaitVisible("#username", chromedp.ByQuery),
		chromedp.SendKeys("#username", f.cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys("#password", f.cfg.Password, chromedp.ByQuery),
		chromedp.Submit("#password", chromedp.ByQuery),
		chromedp.Sleep(f.cfg.SettleDelay*time.Duration(attempt)),
	)
}

func (f *Fetcher) run(ctx context.Context, actions ...chromedp.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tab == nil {
		return errors.New("browser session not signed in")
	}
	return f.runLocked(ctx, actions...)
}

// runLocked runs actions on the tab, bounded by the page timeout and cancelled with ctx.
func (f *Fetcher) runLocked(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(f.tab, f.cfg.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// readJSON opens path on the platform and returns the page body, which the browser renders as text.
func (f *Fetcher) readJSON(ctx context.Context, path string) ([]byte, error) {
	var text string
	err := f.run(ctx,
		chromedp.Navigate(f.cfg.BaseURL+path),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return []byte(text), nil
}

func (f *Fetcher) ensureSession(ctx context.Context) error {
	f.mu.Lock()
	ready := f.tab != nil
	f.mu.Unlock()
	if ready {
		return nil
	}
	return f.signIn(ctx, 1)
}

// FetchWellness signs in and loads the wellness metrics, starting over with a fresh session when the
// page does not carry the full metric set.
func (f *Fetcher) FetchWellness(ctx context.Context, from, to time.Time, metricIDs []int) ([]normalize.Raw, error) {
	path := fetch.WellnessPath(f.cfg.DisplayName, from, to, metricIDs)

	var raws []normalize.Raw
	err := retry.Attempts(ctx, f.cfg.Attempts, f.cfg.RetryDelay, func(ctx context.Context, attempt int) error {
		if err := f.signIn(ctx, attempt); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		body, err := f.readJSON(ctx, path)
		if err != nil {
			return err
		}
		raws, err = fetch.DecodeWellness(body, from, to, metricIDs)
		if err != nil && attempt < f.cfg.Attempts {
			f.logger.Info("failed to load metrics, trying again", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		f.logger.Error("metrics did not load", "error", err)
		return nil, err
	}
	return raws, nil
}

// FetchActivities pages through the activity list for the window.
func (f *Fetcher) FetchActivities(ctx context.Context, from, to time.Time) ([]normalize.Raw, error) {
	if err := f.ensureSession(ctx); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	var all []normalize.Raw
	for start := 0; ; start += fetch.ActivityPageSize {
		body, err := f.readJSON(ctx, fetch.ActivitiesPath(from, to, start))
		if err != nil {
			return nil, err
		}
		page, err := fetch.DecodeActivities(body)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < fetch.ActivityPageSize {
			return all, nil
		}
	}
}

// FetchWeighIns loads the weigh-ins for the window.
func (f *Fetcher) FetchWeighIns(ctx context.Context, from, to time.Time) ([]normalize.Raw, error) {
	if err := f.ensureSession(ctx); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	body, err := f.readJSON(ctx, fetch.WeighInsPath(from, to))
	if err != nil {
		return nil, err
	}
	return fetch.DecodeWeighIns(body)
}

type pageResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// pageFetch issues an XHR from inside the signed-in page so the session cookies apply.
func (f *Fetcher) pageFetch(ctx context.Context, method, path string, body []byte) (pageResponse, error) {
	if err := f.ensureSession(ctx); err != nil {
		return pageResponse{}, fmt.Errorf("sign in: %w", err)
	}

	var resp pageResponse
	err := f.run(ctx, chromedp.Evaluate(fetchScript(method, f.cfg.BaseURL+path, body), &resp,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) },
	))
	if err != nil {
		return pageResponse{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return resp, fmt.Errorf("%s %s: status %d", method, path, resp.Status)
	}
	return resp, nil
}

func fetchScript(method, target string, body []byte) string {
	request := map[string]any{
		"method":      method,
		"credentials": "include",
		"headers": map[string]string{
			"Content-Type":           "application/json",
			"NK":                     "NT",
			"X-HTTP-Method-Override": method,
		},
	}
	if body != nil {
		request["body"] = string(body)
	}
	encodedTarget, _ := json.Marshal(target)
	encodedRequest, _ := json.Marshal(request)
	return fmt.Sprintf(`fetch(%s, %s).then(r => r.text().then(b => ({status: r.status, body: b})))`,
		encodedTarget, encodedRequest)
}

// Reclassify submits the type change for one activity.
func (f *Fetcher) Reclassify(ctx context.Context, activityID int64, to domain.ActivityType) error {
	body, err := fetch.ReclassifyBody(activityID, to)
	if err != nil {
		return err
	}
	_, err = f.pageFetch(ctx, http.MethodPut, fetch.ActivityPath(activityID), body)
	return err
}

// ActivityType reads the type the platform currently holds for the activity.
func (f *Fetcher) ActivityType(ctx context.Context, activityID int64) (domain.ActivityType, error) {
	resp, err := f.pageFetch(ctx, http.MethodGet, fetch.ActivityPath(activityID), nil)
	if err != nil {
		return domain.ActivityType{}, err
	}
	return fetch.DecodeActivityType([]byte(resp.Body))
}
