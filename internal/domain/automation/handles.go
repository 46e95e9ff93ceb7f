package automation

import (
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// handleTable maps per-session element ids to live elements. With a
// positive limit the oldest handle is evicted once the table is full.
type handleTable struct {
	entries map[id.ElementID]Element
	order   []id.ElementID
	limit   int
}

func newHandleTable(limit int) *handleTable {
	return &handleTable{
		entries: make(map[id.ElementID]Element),
		limit:   limit,
	}
}

func (t *handleTable) add(e Element) id.ElementID {
	eid := id.NewElementID()
	if t.limit > 0 {
		for len(t.order) >= t.limit {
			delete(t.entries, t.order[0])
			t.order = t.order[1:]
		}
		t.order = append(t.order, eid)
	}
	t.entries[eid] = e
	return eid
}

func (t *handleTable) get(eid id.ElementID) (Element, bool) {
	e, ok := t.entries[eid]
	return e, ok
}

func (t *handleTable) len() int {
	return len(t.entries)
}

func (t *handleTable) clear() {
	t.entries = make(map[id.ElementID]Element)
	t.order = nil
}
