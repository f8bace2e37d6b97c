// Package tools exposes the todo and story operations as function tools
// for an assistant host.
package tools

import (
	"context"
	"encoding/json"
)

type Tool interface {
	Name() string
	Definition() Spec
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
