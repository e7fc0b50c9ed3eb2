package zone

import (
	"fmt"

	"go.uber.org/zap"
)

// Warning is one recoverable resolution problem: a dangling reference,
// an out-of-range material index, an undecodable texture. Warnings ride
// along with the conversion result instead of interrupting it.
type Warning struct {
	Stage    string
	Fragment int
	Message  string
}

func (w Warning) String() string {
	if w.Fragment > 0 {
		return fmt.Sprintf("%s: fragment %d: %s", w.Stage, w.Fragment, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Warnings accumulates recoverable problems across all pipeline stages
// of one zone conversion.
type Warnings struct {
	items []Warning
}

// Addf records a warning. fragment is the 1-based offending fragment
// id, or 0 when the problem is not fragment-scoped.
func (w *Warnings) Addf(stage string, fragment int, format string, args ...any) {
	w.items = append(w.items, Warning{
		Stage:    stage,
		Fragment: fragment,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (w *Warnings) Items() []Warning { return w.items }

func (w *Warnings) Len() int { return len(w.items) }

// Log emits every accumulated warning through the structured logger.
func (w *Warnings) Log(logger *zap.Logger) {
	for _, item := range w.items {
		logger.Warn(item.Message,
			zap.String("stage", item.Stage),
			zap.Int("fragment", item.Fragment),
		)
	}
}
