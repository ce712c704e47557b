package toolkit

import (
	"github.com/hupe1980/pagemesh/tool"
)

type registration struct {
	def    tool.Definition
	fn     any
	optFns []func(o *RegisterOptions)
}

// Builder composes a list of tool registrations before constructing the
// Toolkit, keeping "declare once, register automatically" ergonomics with an
// explicit list instead of runtime scanning.
type Builder struct {
	regs   []registration
	optFns []func(o *Options)
}

// NewBuilder creates a Builder for a toolkit configured with optFns.
func NewBuilder(optFns ...func(o *Options)) *Builder {
	return &Builder{optFns: optFns}
}

// Add queues a tool registration. Registrations are applied in order, so a
// later Add under the same name replaces the earlier one.
func (b *Builder) Add(def tool.Definition, fn any, optFns ...func(o *RegisterOptions)) *Builder {
	b.regs = append(b.regs, registration{def: def, fn: fn, optFns: optFns})

	return b
}

// Build constructs the Toolkit and applies all queued registrations. The
// first registration failure aborts the build.
func (b *Builder) Build() (*Toolkit, error) {
	k := New(b.optFns...)

	for _, reg := range b.regs {
		if err := k.Register(reg.def, reg.fn, reg.optFns...); err != nil {
			return nil, err
		}
	}

	return k, nil
}
