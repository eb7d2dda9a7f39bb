package tools

import (
	"errors"
	"fmt"
	"sort"
)

// Error codes surfaced to the calling agent. Tool-layer problems are always
// returned as structured results, never thrown across the boundary.
const (
	CodeInvalidArguments = "invalid_arguments"
	CodeUnknownTool      = "unknown_tool"
	CodeInternal         = "internal_error"
)

// ErrInvalidArguments marks handler-level argument problems (e.g. an
// unparseable date) so Invoke can report them under CodeInvalidArguments.
var ErrInvalidArguments = errors.New("invalid arguments")

// Handler executes one tool with already-validated arguments. Handlers are
// synchronous, side-effect-free and idempotent.
type Handler func(args map[string]any) (any, error)

// Tool is one named, schema-validated query function.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// Error is the structured failure half of a Result.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is what every invocation returns: structured data or a structured
// error, never prose.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Registry is the fixed set of tools exposed to the agent. It is populated
// once at startup and read-only afterwards, so concurrent Invoke calls are
// safe.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Errors here are startup bugs: every declared tool
// must be callable before the agent ever sees the registry.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("Register: tool has no name")
	}
	if t.Handler == nil {
		return fmt.Errorf("Register: tool %q has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("Register: duplicate tool %q", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Tools returns the registered tools in name order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Invoke validates the arguments and runs the named tool. The handler is
// never called when validation fails.
func (r *Registry) Invoke(name string, args map[string]any) Result {
	t, ok := r.tools[name]
	if !ok {
		return Result{Error: &Error{Code: CodeUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}}
	}

	clean, err := t.Schema.Validate(args)
	if err != nil {
		return Result{Error: &Error{Code: CodeInvalidArguments, Message: err.Error()}}
	}

	data, err := t.Handler(clean)
	if err != nil {
		code := CodeInternal
		if errors.Is(err, ErrInvalidArguments) {
			code = CodeInvalidArguments
		}
		return Result{Error: &Error{Code: code, Message: err.Error()}}
	}
	return Result{OK: true, Data: data}
}
