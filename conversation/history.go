package conversation

import (
	"fmt"
	"strings"
	"sync"
)

// History is a bounded, in-memory window over a session's most recent turns.
// The persisted store remains the source of truth; this is a cache sized for
// prompt assembly.
type History struct {
	window int
	turns  []Turn
	mtx    sync.RWMutex
}

func NewHistory(window int) *History {
	if window <= 0 {
		window = 10
	}

	return &History{
		window: window,
		turns:  []Turn{},
	}
}

func (h *History) Append(turns ...Turn) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	h.turns = append(h.turns, turns...)

	if len(h.turns) > h.window {
		h.turns = h.turns[len(h.turns)-h.window:]
	}
}

func (h *History) Turns() []Turn {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	copied := make([]Turn, len(h.turns))
	copy(copied, h.turns)

	return copied
}

func (h *History) Len() int {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	return len(h.turns)
}

// Render formats the window for inclusion in a prompt, oldest first.
func (h *History) Render() string {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	var sb strings.Builder
	for i, turn := range h.turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", capitalize(turn.Role), turn.Content))
	}

	return sb.String()
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
