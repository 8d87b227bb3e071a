package infra

import (
	"os"
	"path/filepath"
)

func ensureDir(path string) error { return os.MkdirAll(path, 0o755) }

// GraphsDir is the directory holding graph documents.
func GraphsDir(dataDir string) string { return filepath.Join(dataDir, "graphs") }

// GraphPath is where the document of the named graph lives.
func GraphPath(dataDir, name string) string {
	return filepath.Join(GraphsDir(dataDir), name+".yaml")
}

// PIDPath is the pid file of a background server using dataDir.
func PIDPath(dataDir string) string { return filepath.Join(dataDir, "scriptflow.pid") }

// DaemonLogPath receives a background server's output.
func DaemonLogPath(dataDir string) string { return filepath.Join(dataDir, "logs", "daemon.log") }
