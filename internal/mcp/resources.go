package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"homebox-voice-mcp/internal/events"
	"homebox-voice-mcp/internal/facts"
	"homebox-voice-mcp/internal/homebox"
	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceMIMEJSON = "application/json"

	defaultFactLimit = 25
	maxFactLimit     = 500
)

// LocationReader resolves a location id to its details. The Homebox client
// implements it; other tree providers may not.
type LocationReader interface {
	GetLocation(ctx context.Context, id uuid.UUID) (homebox.LocationDetails, error)
}

func (s *Server) registerAllResources() {
	if s == nil || s.mcpServer == nil {
		return
	}

	s.mcpServer.AddResource(
		mcp.NewResource("homebox://about", "About",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("Server info, tool names and usage notes."),
		),
		s.handleAboutResource,
	)
	s.mcpServer.AddResource(
		mcp.NewResource("homebox://events", "Session Events",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("Actions performed in this session, oldest first."),
		),
		s.handleEventsResource,
	)
	s.mcpServer.AddResource(
		mcp.NewResource("homebox://current-location", "Current Location",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("The location relative commands refer to, if one is set."),
		),
		s.handleCurrentLocationResource,
	)
	s.mcpServer.AddResource(
		mcp.NewResource("homebox://location-tree", "Location Tree",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("All locations as nested objects keyed by name."),
		),
		s.handleLocationTreeResource,
	)
	s.mcpServer.AddResource(
		mcp.NewResource("homebox://location-names", "Location Names",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("Flat list of location names, useful as a transcription vocabulary."),
		),
		s.handleLocationNamesResource,
	)

	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"homebox://facts{?predicate,limit}",
			"Event Facts",
			mcp.WithTemplateMIMEType(resourceMIMEJSON),
			mcp.WithTemplateDescription("Most recent base facts mirrored from the event log, optionally filtered by predicate."),
		),
		s.handleFactsResource,
	)
}

func jsonContents(uri string, payload interface{}) ([]mcp.ResourceContents, error) {
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleAboutResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	toolNames := make([]string, 0)
	for _, t := range s.registry.List() {
		toolNames = append(toolNames, t.Name)
	}
	payload := map[string]interface{}{
		"name":       s.cfg.Server.Name,
		"version":    s.cfg.Server.Version,
		"session_id": s.session.ID().String(),
		"tools":      toolNames,
		"notes": []string{
			"Locations are slash separated paths matched without regard to case or whitespace.",
			"A single name that is unique in the whole inventory is enough to address a location.",
			"Resources are read-only; use tools for changes.",
		},
		"timestamp_ms": time.Now().UnixMilli(),
	}
	return jsonContents(request.Params.URI, payload)
}

func (s *Server) handleEventsResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries := s.session.Events().Entries()
	if entries == nil {
		entries = []events.Entry{}
	}
	return jsonContents(request.Params.URI, map[string]interface{}{
		"session_id": s.session.ID().String(),
		"count":      len(entries),
		"entries":    entries,
	})
}

func (s *Server) handleCurrentLocationResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	current := s.session.CurrentLocation()
	payload := map[string]interface{}{"id": nil}
	if current != nil {
		payload["id"] = current.String()
		if reader, ok := s.tree.(LocationReader); ok {
			details, err := reader.GetLocation(ctx, *current)
			if err != nil {
				return nil, fmt.Errorf("read current location: %w", err)
			}
			payload["name"] = details.Name
			if details.Parent != nil {
				payload["parent"] = details.Parent
			}
		}
	}
	return jsonContents(request.Params.URI, payload)
}

func (s *Server) fetchTree(ctx context.Context) ([]inventory.TreeNode, error) {
	if s.tree == nil {
		return nil, fmt.Errorf("location tree unavailable")
	}
	tree, err := s.tree.GetLocationTree(ctx, nil, false)
	if err != nil {
		return nil, fmt.Errorf("fetch location tree: %w", err)
	}
	return tree, nil
}

func (s *Server) handleLocationTreeResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tree, err := s.fetchTree(ctx)
	if err != nil {
		return nil, err
	}
	text, err := inventory.MinimalJSON(tree)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: request.Params.URI, MIMEType: resourceMIMEJSON, Text: string(text)},
	}, nil
}

func (s *Server) handleLocationNamesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tree, err := s.fetchTree(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, inventory.LocationNames(tree))
}

func (s *Server) handleFactsResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("fact engine unavailable")
	}

	predicate := argString(request.Params.Arguments["predicate"])
	limit := argInt(request.Params.Arguments["limit"])
	if limit <= 0 {
		limit = defaultFactLimit
	}
	if limit > maxFactLimit {
		limit = maxFactLimit
	}

	recent := selectRecentFacts(s.engine, predicate, limit)
	return jsonContents(request.Params.URI, map[string]interface{}{
		"predicate": predicate,
		"limit":     limit,
		"count":     len(recent),
		"facts":     recent,
	})
}

// selectRecentFacts returns the newest limit facts, oldest first.
func selectRecentFacts(engine *facts.Engine, predicate string, limit int) []facts.Fact {
	var source []facts.Fact
	if predicate != "" {
		source = engine.FactsByPredicate(predicate)
	} else {
		source = engine.Facts()
	}
	if len(source) > limit {
		source = source[len(source)-limit:]
	}
	out := make([]facts.Fact, len(source))
	copy(out, source)
	return out
}

func argString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []string:
		if len(value) == 0 {
			return ""
		}
		return value[0]
	default:
		return fmt.Sprintf("%v", value)
	}
}

func argInt(v any) int {
	switch value := v.(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		n, err := strconv.Atoi(argString(v))
		if err != nil {
			return 0
		}
		return n
	}
}
