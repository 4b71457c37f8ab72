package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// TerminalNotifier prints notifications to the terminal.
type TerminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalNotifier creates a terminal delivery channel writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{out: os.Stdout}
}

// Name implements Channel.
func (t *TerminalNotifier) Name() string { return "terminal" }

// IsEnabled implements Channel.
func (t *TerminalNotifier) IsEnabled() bool { return true }

// Send implements Channel.
func (t *TerminalNotifier) Send(ctx context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.out, "[%s] %s\n  %s\n",
		n.Timestamp.Format("15:04:05"), n.Title, n.Message)
	return err
}
