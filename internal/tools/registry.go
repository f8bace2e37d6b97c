package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Registry dispatches calls by tool name.
type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if _, dup := r.byName[t.Name()]; !dup {
			r.order = append(r.order, t.Name())
		}
		r.byName[t.Name()] = t
	}
	sort.Strings(r.order)
	return r
}

// Definitions lists tool specs sorted by name.
func (r *Registry) Definitions() []Spec {
	specs := make([]Spec, len(r.order))
	for i, name := range r.order {
		specs[i] = r.byName[name].Definition()
	}
	return specs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.Execute(ctx, args)
}

// ExecuteCall runs a host tool call after normalizing its input.
func (r *Registry) ExecuteCall(ctx context.Context, call Call) (string, error) {
	args, err := call.Args()
	if err != nil {
		return "", err
	}
	return r.Execute(ctx, call.Name, args)
}
