// internal/attr/table.go
package attr

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/status"
)

// Value is the published state of one attribute.
type Value struct {
	Name      string         `json:"name"`
	Unit      string         `json:"unit,omitempty"`
	Value     float64        `json:"value"`
	Quality   status.Quality `json:"quality"`
	Status    string         `json:"status"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

type entry struct {
	val Value
	set func(v float64) float64
}

// Table is the in-memory attribute table of one device.
// The set of names is fixed at construction; each name carries a typed setter.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	log     zerolog.Logger
	now     func() time.Time
}

// NewTable builds a table holding exactly attrs, all starting empty.
func NewTable(attrs []catalog.Attribute, log zerolog.Logger) *Table {
	t := &Table{
		entries: make(map[string]*entry, len(attrs)),
		order:   make([]string, 0, len(attrs)),
		log:     log,
		now:     time.Now,
	}
	for _, a := range attrs {
		e := &entry{
			val: Value{Name: a.Name, Unit: a.Unit, Quality: status.QualityEmpty, Status: status.QualityEmpty.String()},
			set: floatSetter,
		}
		if a.Kind == catalog.KindInteger {
			e.set = integerSetter
		}
		t.entries[a.Name] = e
		t.order = append(t.order, a.Name)
	}
	return t
}

func floatSetter(v float64) float64 { return v }

func integerSetter(v float64) float64 { return math.Round(v) }

// SetValue stores value and quality. Unknown names are dropped.
func (t *Table) SetValue(name string, value float64, q status.Quality) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok {
		t.log.Debug().Str("attribute", name).Msg("value for unknown attribute dropped")
		return
	}
	e.val.Value = e.set(value)
	e.val.Quality = q
	e.val.Status = q.String()
	e.val.UpdatedAt = t.now()
}

// SetStatus changes only the quality; the last value is kept.
func (t *Table) SetStatus(name string, q status.Quality) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[name]
	if !ok {
		t.log.Debug().Str("attribute", name).Msg("status for unknown attribute dropped")
		return
	}
	e.val.Quality = q
	e.val.Status = q.String()
}

// Get returns one attribute.
func (t *Table) Get(name string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[name]
	if !ok {
		return Value{}, false
	}
	return e.val, true
}

// Snapshot returns every attribute in construction order.
func (t *Table) Snapshot() []Value {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Value, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.entries[n].val)
	}
	return out
}
