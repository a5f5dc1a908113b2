package script

import "sync"

// Buffer is a FIFO of commands shared between the interpreter, which pushes
// while a coroutine runs, and the host update pass, which drains it.
// It is safe for concurrent use.
type Buffer struct {
	mu   sync.Mutex
	cmds []Command
}

// Push appends c.
func (b *Buffer) Push(c Command) {
	b.mu.Lock()
	b.cmds = append(b.cmds, c)
	b.mu.Unlock()
}

// Drain removes and returns every queued command in emission order.
func (b *Buffer) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.cmds
	b.cmds = nil
	return out
}

// Len returns the number of queued commands.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cmds)
}
