package sink

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	match "github.com/0x5487/crossbook"
)

// FilePublishLog appends execution reports as key=value lines to
// <dir>/<symbol>_exec_report.log. The file is opened per batch so it can be
// rotated or tailed between batches.
type FilePublishLog struct {
	mu   sync.Mutex
	path string
}

// NewFilePublishLog creates a file sink for symbol under dir.
func NewFilePublishLog(dir string, symbol string) *FilePublishLog {
	return &FilePublishLog{
		path: filepath.Join(dir, symbol+"_exec_report.log"),
	}
}

// Path returns the file the sink appends to.
func (f *FilePublishLog) Path() string {
	return f.path
}

// Publish appends one line per report.
func (f *FilePublishLog) Publish(reports ...*match.ExecutionReport) error {
	if len(reports) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open exec report log: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, report := range reports {
		if _, err := w.WriteString(report.String()); err != nil {
			file.Close()
			return fmt.Errorf("write exec report: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			file.Close()
			return fmt.Errorf("write exec report: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush exec report log: %w", err)
	}
	return file.Close()
}
