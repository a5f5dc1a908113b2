package script

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/grephite/pkg/graph"
)

func TestBufferFIFO(t *testing.T) {
	var b Buffer
	b.Push(SetColor(1, "#f00"))
	b.Push(ResetColor(2))
	b.Push(SetColor(3, "#0f0"))
	assert.Equal(t, 3, b.Len())

	got := b.Drain()
	assert.Equal(t, []Command{SetColor(1, "#f00"), ResetColor(2), SetColor(3, "#0f0")}, got)
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Drain())
}

func TestBufferConcurrentPushDrain(t *testing.T) {
	const producers, perProducer = 8, 1000
	var b Buffer

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				b.Push(SetColor(graph.NodeID(p), string(rune('a'+i%26))))
				b.Push(Command{Kind: KindResetColor, Node: graph.NodeID(p*perProducer + i)})
			}
		}()
	}

	const total = 2 * producers * perProducer
	done := make(chan []Command)
	go func() {
		var drained []Command
		for len(drained) < total {
			drained = append(drained, b.Drain()...)
		}
		done <- drained
	}()
	wg.Wait()
	drained := <-done

	require.Len(t, drained, total)
	seen := make(map[graph.NodeID]bool)
	last := make(map[graph.NodeID]graph.NodeID)
	for _, c := range drained {
		if c.Kind != KindResetColor {
			continue
		}
		assert.False(t, seen[c.Node], "duplicate command %v", c)
		seen[c.Node] = true
		p := c.Node / perProducer
		if prev, ok := last[p]; ok {
			assert.Less(t, uint64(prev), uint64(c.Node), "producer %d out of order", p)
		}
		last[p] = c.Node
	}
	assert.Len(t, seen, producers*perProducer)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, `set_color(4, "#fff")`, SetColor(4, "#fff").String())
	assert.Equal(t, "reset_color(4)", ResetColor(4).String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
