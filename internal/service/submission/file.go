package submission

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separatorWidth  = 40
	noHandle        = "Не указан"
)

// FileRecorder appends human-readable blocks to a text file, one block per
// submission.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder returns a recorder writing to path. The file and its parent
// directory are created on first write.
func NewFileRecorder(path string) (*FileRecorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("leads file path is required")
	}
	return &FileRecorder{path: filepath.Clean(path)}, nil
}

// Path returns the file the recorder appends to.
func (r *FileRecorder) Path() string { return r.path }

// Record appends one block and syncs it to disk.
func (r *FileRecorder) Record(ctx context.Context, sub intake.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create leads dir: %w", err)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open leads file: %w", err)
	}

	if _, err := f.WriteString(FormatRecord(sub)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write leads file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync leads file: %w", err)
	}
	return f.Close()
}

// FormatRecord renders the block written for sub.
func FormatRecord(sub intake.Submission) string {
	sep := strings.Repeat("=", separatorWidth)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "НОВАЯ ЗАЯВКА - %s\n", sub.SubmittedAt.Format(timestampLayout))
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "ID: %s\n", sub.ID)
	fmt.Fprintf(&b, "Имя: %s\n", sub.Name)
	fmt.Fprintf(&b, "Телефон: %s\n", sub.Phone)
	fmt.Fprintf(&b, "Сообщение: %s\n", sub.Message)
	fmt.Fprintf(&b, "Telegram: %s\n", sub.HandleOrDefault(noHandle))
	fmt.Fprintf(&b, "User ID: %s\n", sub.UserID)
	b.WriteString(sep + "\n")
	return b.String()
}
