package infra

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	ErrDaemonRunning    = errors.New("server already running")
	ErrDaemonNotRunning = errors.New("server not running")
)

// Daemon manages a detached server process recorded in a pid file under
// the data directory.
type Daemon struct{ dataDir string }

func NewDaemon(dataDir string) Daemon { return Daemon{dataDir: dataDir} }

func (d Daemon) LogPath() string { return DaemonLogPath(d.dataDir) }

// PID reports the recorded process if it is still alive. A pid file left
// by a dead process is removed.
func (d Daemon) PID() (int, bool) {
	b, err := os.ReadFile(PIDPath(d.dataDir))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || !alive(pid) {
		_ = os.Remove(PIDPath(d.dataDir))
		return 0, false
	}
	return pid, true
}

// alive probes pid with signal 0; EPERM still means the process exists.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Start runs bin with args in its own session, output appended to LogPath.
func (d Daemon) Start(bin string, args ...string) (int, error) {
	if pid, ok := d.PID(); ok {
		return 0, fmt.Errorf("%w (pid %d)", ErrDaemonRunning, pid)
	}
	if err := ensureDir(filepath.Dir(d.LogPath())); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(d.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()
	fmt.Fprintf(out, "%s starting %s\n", time.Now().Format(time.RFC3339), strings.Join(append([]string{bin}, args...), " "))

	cmd := exec.Command(bin, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	// reaped here only while this process lives
	go func() { _ = cmd.Wait() }()

	pid := cmd.Process.Pid
	if err := os.WriteFile(PIDPath(d.dataDir), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	return pid, nil
}

// Stop sends SIGTERM and waits up to grace before killing the process.
// forced reports whether SIGKILL was needed.
func (d Daemon) Stop(grace time.Duration) (forced bool, err error) {
	pid, ok := d.PID()
	if !ok {
		return false, ErrDaemonNotRunning
	}
	defer os.Remove(PIDPath(d.dataDir))
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return false, err
	}
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()
	deadline := time.After(grace)
	for {
		select {
		case <-poll.C:
			if !alive(pid) {
				return false, nil
			}
		case <-deadline:
			return true, syscall.Kill(pid, syscall.SIGKILL)
		}
	}
}
