// internal/bus/pool.go
package bus

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Pool owns every line of the process, keyed by line id.
type Pool struct {
	mu    sync.Mutex
	lines map[string]*Line
	log   zerolog.Logger
}

func NewPool(log zerolog.Logger) *Pool {
	return &Pool{lines: make(map[string]*Line), log: log}
}

// Add opens and registers a line. Ids must be unique.
func (p *Pool) Add(id string, cfg Config) (*Line, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.lines[id]; exists {
		return nil, fmt.Errorf("bus: duplicate line id %q", id)
	}
	l, err := Open(id, cfg, p.log)
	if err != nil {
		return nil, fmt.Errorf("bus: line %q: %w", id, err)
	}
	p.lines[id] = l
	return l, nil
}

// Get returns a registered line.
func (p *Pool) Get(id string) (*Line, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lines[id]
	return l, ok
}

// Close closes every line and returns the last error seen.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var last error
	for id, l := range p.lines {
		if err := l.Close(); err != nil {
			p.log.Warn().Err(err).Str("line", id).Msg("close line")
			last = err
		}
	}
	return last
}
