package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/models"
	"github.com/thewebalchemist76/immobiliare3/proxy"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	consentSelector  = "#didomi-notice-agree-button"
	nextPageSelector = "a.pagination__next:not(.disabled)"
)

var (
	adLinkRe       = regexp.MustCompile(`/annunci/(\d+)`)
	captchaMarkers = []string{"captcha", "cloudflare", "verify you are human", "verifica di non essere un robot"}
	nonSlugRe      = regexp.MustCompile(`[^a-z0-9]+`)
	trailingDashRe = regexp.MustCompile(`^-+|-+$`)
)

// BrowserHandler is the browser-automation path: a persistent Chromium
// session that browses like a human and reads listing ids out of the
// rendered result pages. Best effort by nature; the session is recycled
// with a fresh proxy between retry attempts.
type BrowserHandler struct {
	cfg     *config.SearchConfig
	proxies *proxy.Pool

	mu          sync.Mutex
	pw          *playwright.Playwright
	context     playwright.BrowserContext
	page        playwright.Page
	initialized bool
	warmedUp    bool
	currentPage int
	activeProxy string
}

func NewBrowserHandler(cfg *config.SearchConfig, proxies *proxy.Pool) *BrowserHandler {
	return &BrowserHandler{cfg: cfg, proxies: proxies}
}

func (h *BrowserHandler) ID() string { return h.cfg.ID }

// FetchPage drives the browser to the requested result page and extracts
// its listing items. A captcha wall surfaces as a retryable fetch failure.
func (h *BrowserHandler) FetchPage(ctx context.Context, req models.PageRequest) ([]json.RawMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := h.ensureBrowser(); err != nil {
		return nil, &FetchError{Err: err}
	}

	target := req.Offset/pageSize + 1
	u := h.searchURL(req.Filters, target)

	if !h.warmedUp {
		h.warmup(req.Filters)
	}

	if err := h.navigate(u, target); err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	h.humanDelay(2000, 4000)
	h.simulateReading()

	content, err := h.page.Content()
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	if isCaptcha(content) {
		return nil, &FetchError{URL: u, Err: ErrCaptchaDetected}
	}

	items, err := extractListingItems(content)
	if err != nil {
		return nil, &ParseError{URL: u, Err: err}
	}

	log.Printf("Browser: page %d yielded %d ads", target, len(items))
	return items, nil
}

// Recycle tears the session down and rotates to the next proxy. Wired as
// the RetryPolicy's OnRetry hook.
func (h *BrowserHandler) Recycle() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closeLocked()
	if h.proxies != nil {
		h.activeProxy = h.proxies.Next()
		if h.activeProxy != "" {
			log.Printf("Browser: rotating proxy")
		}
	}
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked()
}

func (h *BrowserHandler) closeLocked() {
	if h.page != nil {
		h.page.Close()
		h.page = nil
	}
	if h.context != nil {
		h.context.Close()
		h.context = nil
	}
	if h.pw != nil {
		h.pw.Stop()
		h.pw = nil
	}
	h.initialized = false
	h.warmedUp = false
	h.currentPage = 0
}

func (h *BrowserHandler) ensureBrowser() error {
	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	if h.activeProxy == "" && h.proxies != nil {
		h.activeProxy = h.proxies.Next()
	}

	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:   playwright.Bool(false),
		UserAgent:  playwright.String(browserUserAgent),
		Locale:     playwright.String("it-IT"),
		TimezoneId: playwright.String("Europe/Rome"),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if h.activeProxy != "" {
		opts.Proxy = &playwright.Proxy{Server: h.activeProxy}
	}

	cwd, _ := os.Getwd()
	userDataDir := filepath.Join(cwd, "browser_data")
	h.context, err = h.pw.Chromium.LaunchPersistentContext(userDataDir, opts)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	h.page, err = h.context.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	h.initialized = true
	return nil
}

// warmup visits the homepage and pokes around before the first search, so
// the session does not open with a cold deep link.
func (h *BrowserHandler) warmup(filters models.FilterSet) {
	log.Printf("Browser: warming up session")

	h.page.Goto(baseURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	h.humanDelay(4000, 7000)

	h.acceptConsent()
	h.simulateReading()
	h.humanDelay(2000, 4000)

	h.warmedUp = true
}

func (h *BrowserHandler) acceptConsent() {
	err := h.page.Locator(consentSelector).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(3000),
	})
	if err == nil {
		h.humanDelay(1000, 2000)
	}
}

func (h *BrowserHandler) navigate(u string, target int) error {
	// Sequential forward movement uses the next button like a human would;
	// anything else falls back to a direct navigation.
	if h.currentPage > 0 && target == h.currentPage+1 {
		err := h.page.Locator(nextPageSelector).First().Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(5000),
		})
		if err == nil {
			h.currentPage = target
			return nil
		}
		log.Printf("Browser: next-button click failed (%v), navigating directly", err)
	}

	if target == h.currentPage {
		return nil
	}

	_, err := h.page.Goto(u, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return err
	}
	h.currentPage = target
	return nil
}

func (h *BrowserHandler) simulateReading() {
	h.page.Mouse().Move(float64(150+rand.Intn(300)), float64(200+rand.Intn(250)))
	h.page.Mouse().Wheel(0, float64(600+rand.Intn(700)))
}

func (h *BrowserHandler) humanDelay(minMS, maxMS int) {
	d := time.Duration(minMS+rand.Intn(maxMS-minMS)) * time.Millisecond
	time.Sleep(d)
}

// searchURL builds the public site URL for a filter set, e.g.
// /vendita-case/chieti/?pag=2.
func (h *BrowserHandler) searchURL(filters models.FilterSet, page int) string {
	op := "vendita-case"
	if filters.Operation == models.OperationRent {
		op = "affitto-case"
	}
	u := fmt.Sprintf("%s/%s/%s/", baseURL, op, slugify(filters.LocationQuery))
	if page > 1 {
		u += "?pag=" + strconv.Itoa(page)
	}
	return u
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	return trailingDashRe.ReplaceAllString(s, "")
}

func isCaptcha(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractListingItems pulls ad ids and titles out of the rendered HTML and
// shapes them like upstream raw items so the normalizer treats both paths
// the same.
func extractListingItems(content string) ([]json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var items []json.RawMessage

	doc.Find("a[href*='/annunci/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := adLinkRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || seen[id] {
			return
		}
		seen[id] = true

		item := rawItem{ID: &id}
		if title := strings.TrimSpace(sel.Text()); title != "" {
			item.Title = &title
		}

		data, err := json.Marshal(item)
		if err != nil {
			return
		}
		items = append(items, data)
	})

	return items, nil
}
