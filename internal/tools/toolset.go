package tools

import (
	"context"
	"fmt"

	"homebox-voice-mcp/internal/facts"
	"homebox-voice-mcp/internal/inventory"
	"homebox-voice-mcp/internal/resolver"
	"homebox-voice-mcp/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FactQuerier answers Mangle queries over the mirrored event log.
type FactQuerier interface {
	Query(ctx context.Context, query string) ([]facts.QueryResult, error)
}

// Toolset holds the collaborators the handlers share.
type Toolset struct {
	service        inventory.Service
	session        *session.Session
	facts          FactQuerier
	logger         *zap.Logger
	scopeToCurrent bool
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithFacts enables queryEventFacts.
func WithFacts(q FactQuerier) Option {
	return func(t *Toolset) { t.facts = q }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Toolset) { t.logger = logger }
}

// WithScopeToCurrentLocation resolves paths below the current location once one is set.
func WithScopeToCurrentLocation(enabled bool) Option {
	return func(t *Toolset) { t.scopeToCurrent = enabled }
}

// NewToolset binds the tools to one backend and one session.
func NewToolset(service inventory.Service, sess *session.Session, opts ...Option) *Toolset {
	t := &Toolset{
		service: service,
		session: sess,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Toolset) definitions() []Tool {
	return []Tool{
		newTool(SetCurrentLocationName, "Set the current location. Later relative commands refer to it.",
			setCurrentLocationSchema, t.setCurrentLocation),
		newTool(CreateLocationName, "Create a new location below an existing one.",
			createLocationSchema, t.createLocation),
		newTool(CreateItemName, "Create a new item inside an existing location.",
			createItemSchema, t.createItem),
		newTool(AdjustQuantityName, "Change the quantity of an existing item by a relative amount.",
			adjustQuantitySchema, t.adjustQuantity),
		newTool(ListEventsName, "List the actions performed in this session, oldest first.",
			listEventsSchema, t.listEvents),
		newTool(QueryEventFactsName, "Run a Mangle query such as created(Id, Name). over this session's actions.",
			queryEventFactsSchema, t.queryEventFacts),
	}
}

// scope returns the root hint for resolution, nil for the whole tree.
func (t *Toolset) scope() *uuid.UUID {
	if !t.scopeToCurrent {
		return nil
	}
	return t.session.CurrentLocation()
}

// resolveLocation fetches a fresh snapshot and resolves raw against it. An
// empty path never reaches the backend.
func (t *Toolset) resolveLocation(ctx context.Context, raw string) (uuid.UUID, bool, error) {
	path := resolver.Normalize(raw)
	if len(path) == 0 {
		return uuid.Nil, false, nil
	}

	hint := t.scope()
	tree, err := t.service.GetLocationTree(ctx, hint, false)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("fetch location tree: %w", err)
	}

	id, ok := resolver.Resolve(path, tree, hint)
	t.logger.Debug("resolved location",
		zap.String("raw", raw),
		zap.Strings("path", path),
		zap.Bool("found", ok))
	return id, ok, nil
}

func notFound(location string) string {
	return fmt.Sprintf("Could not find location %s", location)
}
