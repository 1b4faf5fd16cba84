// cmd/calpoller/check_test.go
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tamzrod/calpoller/internal/config"
)

func TestPrintPlan(t *testing.T) {
	cfg, err := config.Parse([]byte(`
calpoller:
  lines:
    - { id: bus1, endpoint: "rtu:///dev/ttyUSB0" }
  devices:
    - { id: gas-1, type: gas-analyzer, line: bus1, slave_id: 1 }
    - { id: cal-1, type: gas-calibrator, line: bus1, slave_id: 2, guard_peers: [gas-1] }
`))
	if err != nil {
		t.Fatal(err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatal(err)
	}
	config.Normalize(cfg)

	var buf bytes.Buffer
	if err := printPlan(&buf, cfg); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"gas-1", "measurements", "fc=4 addr=0 qty=10", "calibration_targets", "trigger=110", "guard peers", "every 5000ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan missing %q:\n%s", want, out)
		}
	}
}

func TestSetupLoggingRejectsBadLevel(t *testing.T) {
	logLevel, logFormat = "loud", "json"
	defer func() { logLevel, logFormat = "info", "console" }()

	if err := setupLogging(&bytes.Buffer{}); err == nil {
		t.Fatalf("expected error")
	}
}
