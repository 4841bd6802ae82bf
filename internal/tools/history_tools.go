package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"homebox-voice-mcp/internal/events"
	"homebox-voice-mcp/internal/facts"
)

const (
	ListEventsName      = "listEvents"
	QueryEventFactsName = "queryEventFacts"
)

const listEventsSchema = `{"type": "object", "properties": {}}`

const queryEventFactsSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "minLength": 1, "description": "A single Mangle atom ending in a period, e.g. item_created(Seq, Id, Name, Parent, Qty)."}
	},
	"required": ["query"]
}`

type listEventsArgs struct{}

type queryEventFactsArgs struct {
	Query string `json:"query"`
}

func (t *Toolset) listEvents(_ context.Context, _ listEventsArgs) (string, error) {
	return FormatEvents(t.session.Events().Snapshot()), nil
}

// FormatEvents renders a numbered list of event descriptions.
func FormatEvents(evs []events.Event) string {
	if len(evs) == 0 {
		return "No actions recorded yet"
	}
	var b strings.Builder
	for i, e := range evs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, events.Describe(e))
	}
	return b.String()
}

func (t *Toolset) queryEventFacts(ctx context.Context, args queryEventFactsArgs) (string, error) {
	if t.facts == nil {
		return "Fact queries are disabled", nil
	}

	query := strings.TrimSpace(args.Query)
	if !strings.HasSuffix(query, ".") {
		query += "."
	}

	rows, err := t.facts.Query(ctx, query)
	if errors.Is(err, facts.ErrNotReady) {
		return "Fact queries are disabled", nil
	}
	if err != nil {
		return fmt.Sprintf("Query failed: %v", err), nil
	}
	if len(rows) == 0 {
		return "No matching facts", nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode query rows: %w", err)
	}
	return string(payload), nil
}
