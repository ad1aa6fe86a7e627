package engine

import (
	"slices"
	"time"

	"github.com/lazypower/vapor/internal/expiry"
	"github.com/lazypower/vapor/internal/store"
)

// dirty marks which collections a mutation touched.
type dirty uint8

const (
	dirtyNotes dirty = 1 << iota
	dirtyTrash

	dirtyNone dirty = 0
	dirtyBoth       = dirtyNotes | dirtyTrash
)

// state holds the two collections. All methods assume the engine lock is
// held. An id lives in at most one of the two slices.
type state struct {
	notes []store.Note        // newest CreatedAt first
	trash []store.TrashedNote // newest DeletedAt first
}

func (s *state) noteIndex(id string) int {
	return slices.IndexFunc(s.notes, func(n store.Note) bool { return n.ID == id })
}

func (s *state) trashIndex(id string) int {
	return slices.IndexFunc(s.trash, func(n store.TrashedNote) bool { return n.ID == id })
}

func (s *state) contains(id string) bool {
	return s.noteIndex(id) >= 0 || s.trashIndex(id) >= 0
}

func sortNotes(notes []store.Note) {
	slices.SortStableFunc(notes, func(a, b store.Note) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func sortTrash(trash []store.TrashedNote) {
	slices.SortStableFunc(trash, func(a, b store.TrashedNote) int {
		return b.DeletedAt.Compare(a.DeletedAt)
	})
}

func (s *state) add(n store.Note) dirty {
	if s.contains(n.ID) {
		return dirtyNone
	}
	s.notes = append([]store.Note{n}, s.notes...)
	return dirtyNotes
}

func (s *state) update(id, text string) dirty {
	i := s.noteIndex(id)
	if i < 0 || s.notes[i].Text == text {
		return dirtyNone
	}
	s.notes[i].Text = text
	return dirtyNotes
}

func (s *state) setTag(id string, tag store.Tag) dirty {
	i := s.noteIndex(id)
	if i < 0 || !tag.Valid() || s.notes[i].Tag == tag {
		return dirtyNone
	}
	s.notes[i].Tag = tag
	return dirtyNotes
}

func (s *state) trashNote(id string, now time.Time) (store.Note, bool, dirty) {
	i := s.noteIndex(id)
	if i < 0 {
		return store.Note{}, false, dirtyNone
	}
	n := s.notes[i]
	s.notes = slices.Delete(s.notes, i, i+1)
	s.trash = append([]store.TrashedNote{n.Trashed(now)}, s.trash...)
	sortTrash(s.trash)
	return n, true, dirtyBoth
}

// sanitize clears a tag outside the known set on a note supplied by a caller.
func sanitize(n store.Note) store.Note {
	if !n.Tag.Valid() {
		n.Tag = store.TagNone
	}
	return n
}

// restoreNote puts n back into the active collection. A trash copy of the
// same id is dropped so the id stays unique.
func (s *state) restoreNote(n store.Note) (bool, dirty) {
	if n.ID == "" || s.noteIndex(n.ID) >= 0 {
		return false, dirtyNone
	}
	n = sanitize(n)
	d := dirtyNotes
	if j := s.trashIndex(n.ID); j >= 0 {
		s.trash = slices.Delete(s.trash, j, j+1)
		d |= dirtyTrash
	}
	s.notes = append([]store.Note{n}, s.notes...)
	sortNotes(s.notes)
	return true, d
}

func (s *state) restoreFromTrash(id string) (bool, dirty) {
	j := s.trashIndex(id)
	if j < 0 {
		return false, dirtyNone
	}
	n := s.trash[j].Restored()
	s.trash = slices.Delete(s.trash, j, j+1)
	if s.noteIndex(id) >= 0 {
		return false, dirtyTrash
	}
	s.notes = append([]store.Note{n}, s.notes...)
	sortNotes(s.notes)
	return true, dirtyBoth
}

func (s *state) purge(id string) (bool, dirty) {
	j := s.trashIndex(id)
	if j < 0 {
		return false, dirtyNone
	}
	s.trash = slices.Delete(s.trash, j, j+1)
	return true, dirtyTrash
}

// clearAll trashes every active note with a single shared timestamp and
// returns the prior active collection.
func (s *state) clearAll(now time.Time) ([]store.Note, dirty) {
	prior := s.notes
	if len(prior) == 0 {
		return []store.Note{}, dirtyNone
	}
	batch := make([]store.TrashedNote, len(prior))
	for i, n := range prior {
		batch[i] = n.Trashed(now)
	}
	s.trash = append(batch, s.trash...)
	sortTrash(s.trash)
	s.notes = []store.Note{}
	return slices.Clone(prior), dirtyBoth
}

func (s *state) clearTrash() dirty {
	if len(s.trash) == 0 {
		return dirtyNone
	}
	s.trash = []store.TrashedNote{}
	return dirtyTrash
}

// replaceNotes overwrites the active collection. Replacement ids are removed
// from trash; duplicates within notes keep their first occurrence.
func (s *state) replaceNotes(notes []store.Note) dirty {
	seen := make(map[string]bool, len(notes))
	next := make([]store.Note, 0, len(notes))
	for _, n := range notes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		next = append(next, sanitize(n))
	}
	sortNotes(next)

	d := dirtyNotes
	before := len(s.trash)
	s.trash = slices.DeleteFunc(s.trash, func(t store.TrashedNote) bool { return seen[t.ID] })
	if len(s.trash) != before {
		d |= dirtyTrash
	}
	s.notes = next
	return d
}

func (s *state) sweep(now time.Time) (int, int, dirty) {
	liveNotes := expiry.FilterLive(s.notes, func(n store.Note) time.Time { return n.CreatedAt }, now, expiry.TTL)
	liveTrash := expiry.FilterLive(s.trash, func(n store.TrashedNote) time.Time { return n.DeletedAt }, now, expiry.TTL)

	notesRemoved := len(s.notes) - len(liveNotes)
	trashRemoved := len(s.trash) - len(liveTrash)

	d := dirtyNone
	if notesRemoved > 0 {
		s.notes = liveNotes
		d |= dirtyNotes
	}
	if trashRemoved > 0 {
		s.trash = liveTrash
		d |= dirtyTrash
	}
	return notesRemoved, trashRemoved, d
}
