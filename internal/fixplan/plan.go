package fixplan

import (
	"fmt"
	"strings"

	"centrifuge/internal/audio"
	"centrifuge/internal/validation"
)

// Kind names an atomic operation.
type Kind string

const (
	KindSetTag      Kind = "set-tag"
	KindRewriteTags Kind = "rewrite-tags"
	KindRenameFile  Kind = "rename-file"
	KindRenameDir   Kind = "rename-dir"
	// KindMoveDir is recorded by placement; Apply does not execute it.
	KindMoveDir Kind = "move-dir"
)

// Operation is one step of a plan. File and From/To are relative to the
// release directory for tag and file operations, absolute for directories.
type Operation struct {
	Kind   Kind            `json:"kind"`
	File   string          `json:"file,omitempty"`
	Field  audio.Field     `json:"field,omitempty"`
	Value  string          `json:"value,omitempty"`
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
	Reason validation.Code `json:"reason,omitempty"`
}

func (op Operation) String() string {
	switch op.Kind {
	case KindSetTag:
		if op.Value == "" {
			return fmt.Sprintf("%s %s: clear %s", op.Kind, op.File, op.Field)
		}
		return fmt.Sprintf("%s %s: %s = %q", op.Kind, op.File, op.Field, op.Value)
	case KindRewriteTags:
		return fmt.Sprintf("%s %s", op.Kind, op.File)
	default:
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.From, op.To)
	}
}

// Plan is the ordered operation list for one release.
type Plan struct {
	Ops []Operation `json:"ops"`
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool { return len(p.Ops) == 0 }

// Count returns the number of operations of kind k.
func (p Plan) Count(k Kind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Without returns a copy of the plan minus every operation of kind k.
func (p Plan) Without(k Kind) Plan {
	ops := make([]Operation, 0, len(p.Ops))
	for _, op := range p.Ops {
		if op.Kind != k {
			ops = append(ops, op)
		}
	}
	return Plan{Ops: ops}
}

// WithMove returns a copy of the plan ending in a move-dir operation.
func (p Plan) WithMove(from, to string) Plan {
	ops := make([]Operation, len(p.Ops), len(p.Ops)+1)
	copy(ops, p.Ops)
	ops = append(ops, Operation{Kind: KindMoveDir, From: from, To: to})
	return Plan{Ops: ops}
}

func (p Plan) String() string {
	lines := make([]string, len(p.Ops))
	for i, op := range p.Ops {
		lines[i] = op.String()
	}
	return strings.Join(lines, "\n")
}
