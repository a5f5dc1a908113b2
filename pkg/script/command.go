package script

import (
	"fmt"

	"github.com/matzehuels/grephite/pkg/graph"
)

// Kind identifies a command emitted by a script.
type Kind uint8

const (
	KindSetColor Kind = iota + 1
	KindResetColor
)

// String returns the Lua-facing name of the command.
func (k Kind) String() string {
	switch k {
	case KindSetColor:
		return "set_color"
	case KindResetColor:
		return "reset_color"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Command is one effect requested by a script. Spec is only set for
// KindSetColor and is parsed when the command is applied, not when it is
// emitted.
type Command struct {
	Kind Kind         `json:"kind"`
	Node graph.NodeID `json:"node"`
	Spec string       `json:"spec,omitempty"`
}

// SetColor returns a command that colors node with spec.
func SetColor(node graph.NodeID, spec string) Command {
	return Command{Kind: KindSetColor, Node: node, Spec: spec}
}

// ResetColor returns a command that restores the default color of node.
func ResetColor(node graph.NodeID) Command {
	return Command{Kind: KindResetColor, Node: node}
}

func (c Command) String() string {
	if c.Kind == KindSetColor {
		return fmt.Sprintf("%s(%d, %q)", c.Kind, c.Node, c.Spec)
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Node)
}

// Publisher receives flushed commands.
type Publisher interface {
	Publish(Command)
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(Command)

// Publish calls f(c).
func (f PublisherFunc) Publish(c Command) { f(c) }
