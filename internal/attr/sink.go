// internal/attr/sink.go
package attr

import "github.com/tamzrod/calpoller/internal/status"

// Sink is the delivery-only contract for attribute values.
// It receives values and statuses by name and stores or publishes them verbatim.
type Sink interface {
	SetValue(name string, value float64, q status.Quality)
	SetStatus(name string, q status.Quality)
}

type multi []Sink

// Multi fans every call out to each non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) SetValue(name string, value float64, q status.Quality) {
	for _, s := range m {
		s.SetValue(name, value, q)
	}
}

func (m multi) SetStatus(name string, q status.Quality) {
	for _, s := range m {
		s.SetStatus(name, q)
	}
}
