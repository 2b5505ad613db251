package proxy

import "sync"

// Pool hands out proxy URLs round-robin. The browser path rotates to the
// next proxy when a session is recycled after a failed attempt.
type Pool struct {
	mu   sync.Mutex
	urls []string
	next int
}

func NewPool(urls []string) *Pool {
	return &Pool{urls: urls}
}

// Next returns the next proxy URL, or "" when the pool is empty.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.urls) == 0 {
		return ""
	}
	u := p.urls[p.next%len(p.urls)]
	p.next++
	return u
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.urls)
}
