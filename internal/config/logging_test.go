package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogFilePrunesOldLogs(t *testing.T) {
	dir := t.TempDir()

	old := []string{
		logFilePrefix + "2020-01-01T00-00-00.log",
		logFilePrefix + "2020-01-02T00-00-00.log",
		logFilePrefix + "2020-01-03T00-00-00.log",
		logFilePrefix + "2020-01-04T00-00-00.log",
	}
	for _, name := range old {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("seed log file: %v", err)
		}
	}

	f, err := SetupLogFile(dir, 3)
	if err != nil {
		t.Fatalf("SetupLogFile() error: %v", err)
	}
	defer f.Close()

	if !strings.HasPrefix(filepath.Base(f.Name()), logFilePrefix) {
		t.Errorf("log file %s missing %q prefix", f.Name(), logFilePrefix)
	}

	files, err := filepath.Glob(filepath.Join(dir, logFilePrefix+"*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("kept %d log files, want 3", len(files))
	}

	// the oldest files are the ones pruned
	for _, name := range old[:2] {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("old log %s survived pruning", name)
		}
	}
}
