// Package notify delivers rendered reports to configured channels.
// The pipeline hands over a subject line and a markdown body; each
// channel adapts those to its own wire format.
package notify

import (
	"context"
	"fmt"
	"log"
)

// Notifier is one outbound channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, subject, markdownBody string) error
}

// Dispatch sends to every notifier and reports whether at least one
// delivery succeeded. Individual failures are logged and collected;
// they never stop the remaining channels.
func Dispatch(ctx context.Context, notifiers []Notifier, subject, body string) (bool, error) {
	if len(notifiers) == 0 {
		return false, nil
	}

	var delivered int
	var firstErr error
	for _, n := range notifiers {
		if err := n.Send(ctx, subject, body); err != nil {
			log.Printf("notify: %s failed: %v", n.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", n.Name(), err)
			}
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return false, firstErr
	}
	return true, nil
}
