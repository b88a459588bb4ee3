package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogWritesToFileWhenEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	if err := EnableFile(path); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !Enabled() {
		t.Fatalf("expected logging enabled")
	}

	Log("engine", "layer %d fired note %d", 3, 60)
	Named("layer").Debug("gate", zap.Bool("switched", true))
	for i := 0; i < 4; i++ {
		LogEvery(2, "midi", "burst")
	}
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"Debug logging started", "layer 3 fired note 60", "switched", "every 2, count=4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestLogIsNoopWhenDisabled(t *testing.T) {
	Disable()
	Log("engine", "dropped")
	Named("engine").Info("dropped")
	if Enabled() {
		t.Fatalf("expected logging disabled")
	}
}
