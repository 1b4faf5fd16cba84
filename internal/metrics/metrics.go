// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/calpoller/internal/poller"
	"github.com/tamzrod/calpoller/internal/status"
)

const namespace = "calpoller"

// Publisher owns the process-wide collectors.
type Publisher struct {
	value           *prometheus.GaugeVec
	quality         *prometheus.GaugeVec
	polls           *prometheus.CounterVec
	segmentFailures *prometheus.CounterVec
	mode            *prometheus.GaugeVec
}

// NewPublisher creates and registers every collector on reg.
func NewPublisher(reg prometheus.Registerer) (*Publisher, error) {
	p := &Publisher{
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attribute_value",
			Help:      "Last published attribute value.",
		}, []string{"device", "attribute"}),
		quality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attribute_quality",
			Help:      "Attribute quality code (0 empty, 1 normal, 2 malfunction, 3 zero calibration, 4 span calibration).",
		}, []string{"device", "attribute"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_total",
			Help:      "Poll ticks by outcome (ok, partial, failed).",
		}, []string{"device", "result"}),
		segmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_failures_total",
			Help:      "Failed segment reads.",
		}, []string{"device", "segment"}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_mode",
			Help:      "Device operating mode (0 unknown, 1 measuring, 2 zero calibrating, 3 span calibrating).",
		}, []string{"device"}),
	}

	for _, c := range []prometheus.Collector{p.value, p.quality, p.polls, p.segmentFailures, p.mode} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Device returns the sink and observer for one device.
func (p *Publisher) Device(id string) *DeviceSink {
	return &DeviceSink{p: p, device: id}
}

// DeviceSink publishes one device's attributes and poll outcomes.
type DeviceSink struct {
	p      *Publisher
	device string
}

func (d *DeviceSink) SetValue(name string, value float64, q status.Quality) {
	d.p.value.WithLabelValues(d.device, name).Set(value)
	d.p.quality.WithLabelValues(d.device, name).Set(float64(q))
}

func (d *DeviceSink) SetStatus(name string, q status.Quality) {
	d.p.quality.WithLabelValues(d.device, name).Set(float64(q))
}

// ObservePoll counts the tick outcome and each failed segment.
func (d *DeviceSink) ObservePoll(res poller.Result) {
	result := "ok"
	switch {
	case res.SuccessCount == 0:
		result = "failed"
	case res.SuccessCount < res.TotalCount:
		result = "partial"
	}
	d.p.polls.WithLabelValues(d.device, result).Inc()

	for name := range res.Failures {
		d.p.segmentFailures.WithLabelValues(d.device, name).Inc()
	}
}

// ObserveMode exports the current mode.
func (d *DeviceSink) ObserveMode(m status.Mode) {
	d.p.mode.WithLabelValues(d.device).Set(float64(m))
}
