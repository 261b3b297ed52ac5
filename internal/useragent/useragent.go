// Package useragent picks browser User-Agent strings for upstream requests.
package useragent

import (
	"math/rand"
	"sync"
	"time"
)

// Defaults is the built-in pool of desktop browser user agents.
var Defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_3_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.7004.716 Safari/537.36 Core/1.47.1724.14 QQBrowser/9.4.7658.400",
	"Mozilla/5.0 (Windows NT 6.2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.4122.371 Safari/537.36 Core/1.47.5653.660 QQBrowser/9.4.7658.400",
	"Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/38.0.2264.617 Safari/537.36 SE 2.X MetaSr 1.0",
	"Mozilla/5.0 (Windows NT 6.2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/103.0.2794.942 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Maxthon/4.9.5995.63 Chrome/39.0.3975.82 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Maxthon/4.9.2949.65 Chrome/39.0.4949.70 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; Trident/7.0; rv:11.0) like Gecko",
	"Mozilla/5.0 (Windows NT 6.2; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.134.80 BIDUBrowser/8.3 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/42.0.7005.18 Safari/537.36 LBBROWSER ",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Maxthon/4.9.2451.69 Chrome/39.0.245.35 Safari/537.36",
}

// Source is the randomness a Pool draws from. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Picker returns a user agent for the next request.
type Picker interface {
	Pick() string
}

// Pool picks uniformly from a fixed list of user agents.
type Pool struct {
	mu     sync.Mutex
	agents []string
	src    Source
}

// New builds a pool over agents. A nil src seeds one from the clock; an empty
// agents list falls back to Defaults.
func New(agents []string, src Source) *Pool {
	if len(agents) == 0 {
		agents = Defaults
	}
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pool{agents: append([]string(nil), agents...), src: src}
}

// Pick returns one user agent.
func (p *Pool) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agents[p.src.Intn(len(p.agents))]
}

// Len is the pool size.
func (p *Pool) Len() int {
	return len(p.agents)
}

// Fixed always returns the same user agent.
type Fixed string

func (f Fixed) Pick() string { return string(f) }
