package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lotas/tabtray/internal/creditcards"
)

type navOp struct {
	pop  bool
	dest creditcards.Destination
}

// navFlushMsg tells the root model to apply queued navigation ops.
type navFlushMsg struct{}

// navigator queues navigation requests and applies them on the UI loop.
// It is safe to call from Update and from command goroutines.
type navigator struct {
	mu      sync.Mutex
	pending []navOp
	send    func(tea.Msg)
}

func (n *navigator) PopBackStack() {
	n.push(navOp{pop: true})
}

func (n *navigator) Navigate(dest creditcards.Destination) {
	n.push(navOp{dest: dest})
}

func (n *navigator) push(op navOp) {
	n.mu.Lock()
	n.pending = append(n.pending, op)
	send := n.send
	n.mu.Unlock()
	if send != nil {
		// Send blocks until the UI loop reads it, and Navigate may be
		// called from inside Update.
		go send(navFlushMsg{})
	}
}

func (n *navigator) setSend(send func(tea.Msg)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

func (n *navigator) drain() []navOp {
	n.mu.Lock()
	defer n.mu.Unlock()
	ops := n.pending
	n.pending = nil
	return ops
}

// backStack is the screen stack. The tray is always at the bottom.
type backStack []creditcards.Destination

func (s backStack) top() creditcards.Destination {
	if len(s) == 0 {
		return creditcards.DestinationTabsTray
	}
	return s[len(s)-1]
}

func (s backStack) apply(op navOp) backStack {
	if op.pop {
		if len(s) > 1 {
			return s[:len(s)-1]
		}
		return s
	}
	if s.top() == op.dest {
		return s
	}
	return append(s, op.dest)
}
