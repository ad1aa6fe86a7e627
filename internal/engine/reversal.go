package engine

import (
	"slices"

	"github.com/lazypower/vapor/internal/store"
)

// ReversalKind names the operation that undoes a destructive change.
type ReversalKind string

const (
	ReverseRestoreNote  ReversalKind = "restore_note"
	ReverseReplaceNotes ReversalKind = "replace_notes"
)

// Reversal is a pending undo handed back by Delete and ClearAll. The engine
// keeps no undo log: undo is possible only while a caller holds the value.
type Reversal struct {
	Kind  ReversalKind `json:"kind"`
	Notes []store.Note `json:"notes"`
}

func restoreReversal(n store.Note) Reversal {
	return Reversal{Kind: ReverseRestoreNote, Notes: []store.Note{n}}
}

func replaceReversal(prior []store.Note) Reversal {
	return Reversal{Kind: ReverseReplaceNotes, Notes: slices.Clone(prior)}
}

// Reverse applies r. It reports false for a malformed reversal or a
// restore the engine rejected.
func (e *Engine) Reverse(r Reversal) bool {
	switch r.Kind {
	case ReverseRestoreNote:
		if len(r.Notes) != 1 {
			return false
		}
		return e.RestoreNote(r.Notes[0])
	case ReverseReplaceNotes:
		e.ReplaceNotes(r.Notes)
		return true
	}
	return false
}
