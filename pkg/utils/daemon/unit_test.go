package daemon

import (
	"os"
	"strings"
	"testing"
)

func TestRenderUnit(t *testing.T) {
	got := renderUnit("/usr/local/bin/fuelgauge")
	if !strings.Contains(got, "ExecStart=/usr/local/bin/fuelgauge daemon\n") {
		t.Errorf("unit has no ExecStart for the binary:\n%s", got)
	}
	if strings.Contains(got, "/path/to/") {
		t.Errorf("unit still contains the placeholder:\n%s", got)
	}
}

func TestWriteAndRemoveUnit(t *testing.T) {
	old := unitDir
	unitDir = t.TempDir()
	t.Cleanup(func() { unitDir = old })

	if err := writeUnit("/opt/fuelgauge"); err != nil {
		t.Fatalf("writeUnit() error = %v", err)
	}
	b, err := os.ReadFile(unitPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != renderUnit("/opt/fuelgauge") {
		t.Errorf("written unit = %q", b)
	}

	// Overwriting is allowed.
	if err := writeUnit("/opt/fuelgauge"); err != nil {
		t.Fatalf("writeUnit() second call error = %v", err)
	}

	if err := removeUnit(); err != nil {
		t.Fatalf("removeUnit() error = %v", err)
	}
	if _, err := os.Stat(unitPath()); !os.IsNotExist(err) {
		t.Errorf("unit still present, stat error = %v", err)
	}
	if err := removeUnit(); err != nil {
		t.Errorf("removeUnit() on missing unit error = %v", err)
	}
}
