package commands

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// teeLogger writes the run transcript to stdout and, when a log file is
// configured, appends the same lines to it.
type teeLogger struct {
	file *os.File
}

func (l *teeLogger) Printf(format string, v ...interface{}) {
	line := fmt.Sprintf(format+"\n", v...)
	fmt.Print(line)
	if l.file != nil {
		l.file.WriteString(line)
	}
}

func (l *teeLogger) Println(v ...interface{}) {
	line := fmt.Sprintln(v...)
	fmt.Print(line)
	if l.file != nil {
		l.file.WriteString(line)
	}
}

func (l *teeLogger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

// newTeeLogger truncates and opens the log file at path. An empty path
// disables the file transcript.
func newTeeLogger(path string) (*teeLogger, error) {
	if path == "" {
		return &teeLogger{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &teeLogger{file: f}, nil
}

// parseID parses a 32-bit identifier in decimal or 0x hex form.
func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return uint32(v), nil
}

func formatBytes(bytes int64) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// startPager starts $PAGER (default less) and returns its stdin.
func startPager() (io.WriteCloser, *exec.Cmd, error) {
	pagerCmd := os.Getenv("PAGER")
	if pagerCmd == "" {
		pagerCmd = "less"
	}

	parts := strings.Fields(pagerCmd)
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("empty pager command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return in, cmd, nil
}

// pagedOutput returns a writer piped through the pager when stdout is a
// terminal, plus a cleanup func.
func pagedOutput(noPager bool) (io.Writer, func()) {
	if noPager || !isTTY(os.Stdout) {
		return os.Stdout, func() {}
	}
	in, cmd, err := startPager()
	if err != nil {
		return os.Stdout, func() {}
	}
	return in, func() {
		in.Close()
		cmd.Wait()
	}
}
