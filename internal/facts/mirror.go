package facts

import (
	"context"
	"fmt"

	"homebox-voice-mcp/internal/events"

	"github.com/google/uuid"
)

// EventFacts maps a log entry to the base facts declared in inventory.mg.
// Ids are rendered as strings; an absent previous location becomes "".
func EventFacts(entry events.Entry) ([]Fact, error) {
	seq := int64(entry.Seq)
	var f Fact
	switch e := entry.Event.(type) {
	case events.CurrentLocationSet:
		prev := ""
		if e.PreviousLocationID != nil {
			prev = e.PreviousLocationID.String()
		}
		f = Fact{Args: []interface{}{seq, e.RequestedPath, e.NewLocationID.String(), prev}}
	case events.LocationCreated:
		f = Fact{Args: []interface{}{seq, e.LocationID.String(), e.Name, e.ParentPath}}
	case events.ItemCreated:
		f = Fact{Args: []interface{}{seq, e.ItemID.String(), e.Name, e.ParentPath, int64(e.Quantity)}}
	case events.QuantityChanged:
		f = Fact{Args: []interface{}{seq, e.ItemID.String(), e.ItemName, int64(e.Delta), int64(e.PreviousQuantity)}}
	default:
		return nil, fmt.Errorf("no fact mapping for event %T", entry.Event)
	}
	f.Predicate = string(entry.Event.Kind())
	f.Timestamp = entry.RecordedAt
	return []Fact{f}, nil
}

// RecordEvent mirrors one log entry into the engine.
func (e *Engine) RecordEvent(ctx context.Context, entry events.Entry) error {
	if !e.cfg.Enable {
		return nil
	}
	facts, err := EventFacts(entry)
	if err != nil {
		return err
	}
	return e.AddFacts(ctx, facts)
}

// CreatedIDs returns the ids of everything the session created, in the
// order Mangle yields them.
func (e *Engine) CreatedIDs(ctx context.Context) ([]uuid.UUID, error) {
	results, err := e.Query(ctx, "created(Id, Name).")
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		s, ok := r["Id"].(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
