package store

import (
	"errors"
	"fmt"
	"time"
)

// Tag is an optional label on a note. The zero value means no tag.
type Tag string

const (
	TagNone     Tag = ""
	TagIdea     Tag = "idea"
	TagTask     Tag = "task"
	TagPersonal Tag = "personal"
	TagWork     Tag = "work"
)

// ErrInvalidTag is returned by ParseTag for labels outside the fixed set.
var ErrInvalidTag = errors.New("invalid tag")

// Tags lists the valid, non-empty tags in display order.
var Tags = []Tag{TagIdea, TagTask, TagPersonal, TagWork}

// Valid reports whether t is a known tag or unset.
func (t Tag) Valid() bool {
	switch t {
	case TagNone, TagIdea, TagTask, TagPersonal, TagWork:
		return true
	}
	return false
}

// ParseTag converts s into a Tag. An empty string clears the tag.
func ParseTag(s string) (Tag, error) {
	t := Tag(s)
	if !t.Valid() {
		return TagNone, fmt.Errorf("%w: %q", ErrInvalidTag, s)
	}
	return t, nil
}

// Note is an active capture.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Tag       Tag       `json:"tag,omitempty"`
	AudioData string    `json:"audioData,omitempty"` // base64 data URI
}

// TrashedNote is a soft-deleted note. DeletedAt is only ever set while the
// note lives in the trash collection.
type TrashedNote struct {
	Note
	DeletedAt time.Time `json:"deletedAt"`
}

// Trashed stamps n for the trash collection.
func (n Note) Trashed(at time.Time) TrashedNote {
	return TrashedNote{Note: n, DeletedAt: at}
}

// Restored strips the trash stamp, preserving CreatedAt.
func (t TrashedNote) Restored() Note {
	return t.Note
}
