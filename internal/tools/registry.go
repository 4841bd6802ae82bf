// Package tools implements the agent-facing inventory tools: a static
// registry of named handlers with JSON Schema validated, typed arguments.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homebox-voice-mcp/internal/schema"

	"go.uber.org/zap"
)

var (
	// ErrInvalidArguments means the call itself was malformed.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrUnknownTool is returned for names that are not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool is one registry entry. The handler only ever sees arguments that
// passed Schema.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage

	validator *schema.Validator
	invoke    func(ctx context.Context, args map[string]interface{}) (string, error)
}

// newTool binds a typed handler to its schema. Arguments are validated, then
// decoded into A through a JSON round trip.
func newTool[A any](name, description, rawSchema string, handler func(context.Context, A) (string, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Schema:      json.RawMessage(rawSchema),
		validator:   schema.MustValidator(rawSchema),
		invoke: func(ctx context.Context, raw map[string]interface{}) (string, error) {
			var args A
			if err := decodeArgs(raw, &args); err != nil {
				return "", fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
			}
			return handler(ctx, args)
		},
	}
}

func decodeArgs(raw map[string]interface{}, dst interface{}) error {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Invoke validates args and runs the handler. Expected failures come back as
// the returned string; errors are malformed calls or backend failures.
func (t Tool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	if err := t.validator.Validate(args); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.Name, err)
	}
	return t.invoke(ctx, args)
}

// Recorder receives one trace record per tool call.
type Recorder interface {
	Log(eventType, sessionID string, data interface{})
}

// Registry maps tool names to tools. It is built once and never changes.
type Registry struct {
	tools     map[string]Tool
	order     []string
	sessionID string
	recorder  Recorder
	logger    *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRecorder traces every call to rec.
func WithRecorder(rec Recorder) RegistryOption {
	return func(r *Registry) { r.recorder = rec }
}

// NewRegistry registers every tool of ts.
func NewRegistry(ts *Toolset, opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:     make(map[string]Tool),
		sessionID: ts.session.ID().String(),
		logger:    ts.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, tool := range ts.definitions() {
		r.register(tool)
	}
	return r
}

func (r *Registry) register(tool Tool) {
	if _, dup := r.tools[tool.Name]; dup {
		panic(fmt.Sprintf("tool %s registered twice", tool.Name))
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call dispatches one tool call by name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	result, err := tool.Invoke(ctx, args)
	elapsed := time.Since(start)

	fields := []zap.Field{zap.String("tool", name), zap.Duration("elapsed", elapsed)}
	if err != nil {
		r.logger.Warn("tool call failed", append(fields, zap.Error(err))...)
	} else {
		r.logger.Debug("tool call", append(fields, zap.String("result", result))...)
	}

	if r.recorder != nil {
		trace := map[string]interface{}{
			"tool":        name,
			"args":        args,
			"result":      result,
			"duration_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			trace["error"] = err.Error()
		}
		r.recorder.Log("tool_call", r.sessionID, trace)
	}
	return result, err
}
