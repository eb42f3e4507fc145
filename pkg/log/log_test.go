package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitWritesLogFileUnderDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	// output_path 是目录：日志同时写 stdout 与 <目录>/app.log
	Init("info", "json", dir)
	Info("log file check")
	Sync()

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Fatalf("expected app.log under %s: %v", dir, err)
	}
}

func TestInitWithEmptyPathStaysOnStdout(t *testing.T) {
	Init("info", "json", "")
	Info("stdout only")
	Sync()
}
