package poolconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/taskforge/taskforge/pkg/pool"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pool.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileBuildsClassicFixed(t *testing.T) {
	path := writeTempConfig(t, "kind: classic-fixed\nn: 4\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Kind != KindClassicFixed || cfg.N != 4 {
		t.Fatalf("cfg = %+v, want kind=classic-fixed n=4", cfg)
	}

	p, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Close()
}

func TestLoadFileParsesIdleTimeout(t *testing.T) {
	path := writeTempConfig(t, "kind: elastic-global\nmin: 1\nmax: 4\nidle_timeout: 50ms\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.IdleTimeout.String() != "50ms" {
		t.Fatalf("IdleTimeout = %v, want 50ms", cfg.IdleTimeout)
	}
}

func TestLoadFileRejectsUnknownKind(t *testing.T) {
	path := writeTempConfig(t, "kind: nonsense\nn: 4\n")

	_, err := LoadFile(path)
	if !errors.Is(err, pool.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want wrapping pool.ErrInvalidConfiguration", err)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := writeTempConfig(t, "kind: elastic-global\nmin: 1\nmax: 4\nidle_timeout: not-a-duration\n")

	_, err := LoadFile(path)
	if !errors.Is(err, pool.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want wrapping pool.ErrInvalidConfiguration", err)
	}
}

func TestBuildPropagatesConstructorValidationError(t *testing.T) {
	cfg := Config{Kind: KindWorkStealing, N: 0}

	_, err := Build(cfg)
	if !errors.Is(err, pool.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want wrapping pool.ErrInvalidConfiguration", err)
	}
}
