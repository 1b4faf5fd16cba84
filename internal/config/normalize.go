// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultListen             = ":9090"
	DefaultIntervalMs         = 5000
	DefaultProtectionWindowMs = 2000
	DefaultTimeoutMs          = 1000
	DefaultBaud               = 9600
	DefaultDataBits           = 8
	DefaultParity             = "N"
	DefaultStopBits           = 1
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	c := &cfg.CalPoller
	if c.Listen == "" {
		c.Listen = DefaultListen
	}

	for i := range c.Lines {
		l := &c.Lines[i]
		l.TimeoutMs = orDefault(l.TimeoutMs, DefaultTimeoutMs)
		l.Baud = orDefault(l.Baud, DefaultBaud)
		l.DataBits = orDefault(l.DataBits, DefaultDataBits)
		l.StopBits = orDefault(l.StopBits, DefaultStopBits)
		if l.Parity == "" {
			l.Parity = DefaultParity
		}
	}

	for i := range c.Devices {
		d := &c.Devices[i]
		d.Poll.IntervalMs = orDefault(d.Poll.IntervalMs, DefaultIntervalMs)
		d.ProtectionWindowMs = orDefault(d.ProtectionWindowMs, DefaultProtectionWindowMs)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
