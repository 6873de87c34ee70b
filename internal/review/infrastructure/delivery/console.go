package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
)

// ConsoleNotifier writes reports to a terminal or any other writer.
type ConsoleNotifier struct {
	w io.Writer
}

var _ domain.Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a notifier writing to w, or stdout when nil.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Name() string { return "console" }

func (n *ConsoleNotifier) Notify(_ context.Context, report domain.Report) error {
	rule := strings.Repeat("=", 50)
	_, err := fmt.Fprintf(n.w, "%s\n%s\n%s\n%s\n", rule, report.Title, rule, report.Body)
	return err
}
