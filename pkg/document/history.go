package document

import "github.com/plotdeck/plotdeck/pkg/errors"

// historyRecord pairs an applied command with the inverse captured at
// application time.
type historyRecord struct {
	fwd Command
	inv Command
}

// history is the linear undo log. pos is the cursor in [0, len]:
// records before it are applied, records at or after it are the redo
// tail.
type history struct {
	records []historyRecord
	pos     int
}

// push records a freshly applied command, discarding the redo tail.
func (h *history) push(rec historyRecord) {
	h.records = append(h.records[:h.pos], rec)
	h.pos = len(h.records)
}

// stepBack moves the cursor back and returns the record to invert.
func (h *history) stepBack() (historyRecord, error) {
	if h.pos == 0 {
		return historyRecord{}, errors.New(errors.ErrCodeNothingToUndo, "nothing to undo")
	}
	h.pos--
	return h.records[h.pos], nil
}

// stepForward returns the record to re-apply and moves the cursor
// past it.
func (h *history) stepForward() (historyRecord, error) {
	if h.pos == len(h.records) {
		return historyRecord{}, errors.New(errors.ErrCodeNothingToRedo, "nothing to redo")
	}
	rec := h.records[h.pos]
	h.pos++
	return rec, nil
}

// replaceCurrentInverse swaps the stored inverse of the most recently
// applied record. Redo re-runs a command, so its captured state is
// fresher than what the old inverse saw.
func (h *history) replaceCurrentInverse(inv Command) {
	if h.pos > 0 {
		h.records[h.pos-1].inv = inv
	}
}

func (h *history) undoName() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	return h.records[h.pos-1].fwd.CommandName(), true
}

func (h *history) redoName() (string, bool) {
	if h.pos == len(h.records) {
		return "", false
	}
	return h.records[h.pos].fwd.CommandName(), true
}
