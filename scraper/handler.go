package scraper

import (
	"net/http"
	"time"

	"github.com/thewebalchemist76/immobiliare3/config"
	"github.com/thewebalchemist76/immobiliare3/proxy"
)

// NewFetcher picks the fetch path for a search config. The API path is the
// default.
func NewFetcher(cfg *config.SearchConfig, client *http.Client, proxies *proxy.Pool) PageFetcher {
	switch cfg.Handler {
	case "browser":
		return NewBrowserHandler(cfg, proxies)
	default:
		return NewAPIHandler(cfg, client)
	}
}

// RetryPolicyFor derives the page-fetch retry policy for a search. The
// browser path retries with session recycling and proxy rotation; the
// direct API path does not retry unless the config says so.
func RetryPolicyFor(cfg *config.SearchConfig, fetcher PageFetcher) RetryPolicy {
	var policy RetryPolicy

	if cfg.Handler == "browser" {
		policy = BrowserRetry()
		if bh, ok := fetcher.(*BrowserHandler); ok {
			policy.OnRetry = func(attempt int, err error) {
				bh.Recycle()
			}
		}
	} else {
		policy = NoRetry()
	}

	if cfg.RetryAttempts > 0 {
		policy.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseMS > 0 {
		policy.BaseDelay = time.Duration(cfg.RetryBaseMS) * time.Millisecond
	}

	return policy
}
