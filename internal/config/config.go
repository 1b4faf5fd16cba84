// internal/config/config.go
package config

type Config struct {
	CalPoller CalPollerConfig `yaml:"calpoller"`
}

type CalPollerConfig struct {
	Listen  string         `yaml:"listen"`
	Journal string         `yaml:"journal"` // sqlite path; empty disables the journal
	Lines   []LineConfig   `yaml:"lines"`
	Devices []DeviceConfig `yaml:"devices"`
}

// ---- LINE ----

// LineConfig is one physical bus shared by every device that names it.
type LineConfig struct {
	ID        string `yaml:"id"`
	Endpoint  string `yaml:"endpoint"` // tcp://host:port or rtu:///dev/ttyX
	Baud      int    `yaml:"baud"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID      string     `yaml:"id"`
	Type    string     `yaml:"type"`
	Line    string     `yaml:"line"`
	SlaveID int        `yaml:"slave_id"`
	Poll    PollConfig `yaml:"poll"`

	// ProtectionWindowMs is how long a written calibration target is
	// published instead of the value read back.
	ProtectionWindowMs int `yaml:"protection_window_ms"`

	// GuardPeers are devices whose span target this device's span writes protect.
	GuardPeers []string `yaml:"guard_peers"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
