package scraper

import (
	"testing"
	"time"

	"github.com/thewebalchemist76/immobiliare3/config"
)

func TestNewFetcherDispatch(t *testing.T) {
	api := &config.SearchConfig{ID: "a", Handler: "api"}
	api.ApplyDefaults()
	if _, ok := NewFetcher(api, nil, nil).(*APIHandler); !ok {
		t.Fatal("api handler config must produce an APIHandler")
	}

	browser := &config.SearchConfig{ID: "b", Handler: "browser"}
	browser.ApplyDefaults()
	if _, ok := NewFetcher(browser, nil, nil).(*BrowserHandler); !ok {
		t.Fatal("browser handler config must produce a BrowserHandler")
	}

	blank := &config.SearchConfig{ID: "c"}
	blank.ApplyDefaults()
	if _, ok := NewFetcher(blank, nil, nil).(*APIHandler); !ok {
		t.Fatal("unset handler must default to the API path")
	}
}

func TestRetryPolicyForAPI(t *testing.T) {
	cfg := &config.SearchConfig{ID: "a", Handler: "api"}
	cfg.ApplyDefaults()

	policy := RetryPolicyFor(cfg, NewFetcher(cfg, nil, nil))
	if policy.MaxAttempts != 1 {
		t.Fatalf("api path attempts = %d, want 1", policy.MaxAttempts)
	}
	if policy.OnRetry != nil {
		t.Fatal("api path must not carry a recycle hook")
	}
}

func TestRetryPolicyForBrowser(t *testing.T) {
	cfg := &config.SearchConfig{ID: "b", Handler: "browser"}
	cfg.ApplyDefaults()

	policy := RetryPolicyFor(cfg, NewFetcher(cfg, nil, nil))
	if policy.MaxAttempts != 3 {
		t.Fatalf("browser path attempts = %d, want 3", policy.MaxAttempts)
	}
	if policy.BaseDelay != 2*time.Second {
		t.Fatalf("base delay = %s, want 2s", policy.BaseDelay)
	}
	if policy.OnRetry == nil {
		t.Fatal("browser path must recycle the session between attempts")
	}
}

func TestRetryPolicyOverrides(t *testing.T) {
	cfg := &config.SearchConfig{ID: "a", Handler: "api", RetryAttempts: 4, RetryBaseMS: 250}
	cfg.ApplyDefaults()

	policy := RetryPolicyFor(cfg, NewFetcher(cfg, nil, nil))
	if policy.MaxAttempts != 4 {
		t.Fatalf("attempts = %d, want 4", policy.MaxAttempts)
	}
	if policy.BaseDelay != 250*time.Millisecond {
		t.Fatalf("base delay = %s, want 250ms", policy.BaseDelay)
	}
}
