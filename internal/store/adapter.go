package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Keys under which the two collections are persisted. They are written and
// read independently.
const (
	KeyNotes = "vapor-notes"
	KeyTrash = "vapor-trash"
)

// timeLayout round-trips exactly through time.Parse and is locale independent.
const timeLayout = time.RFC3339Nano

// record is the persisted shape shared by both collections.
type record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Tag       string `json:"tag,omitempty"`
	AudioData string `json:"audioData,omitempty"`
	DeletedAt string `json:"deletedAt,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (r record) note() (Note, error) {
	if r.ID == "" {
		return Note{}, fmt.Errorf("record without id")
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("record %s: createdAt: %w", r.ID, err)
	}
	tag := Tag(r.Tag)
	if !tag.Valid() {
		tag = TagNone
	}
	return Note{
		ID:        r.ID,
		Text:      r.Text,
		CreatedAt: created,
		Tag:       tag,
		AudioData: r.AudioData,
	}, nil
}

func noteRecord(n Note) record {
	return record{
		ID:        n.ID,
		Text:      n.Text,
		CreatedAt: formatTime(n.CreatedAt),
		Tag:       string(n.Tag),
		AudioData: n.AudioData,
	}
}

// Adapter serializes whole collections into a KV. It holds no business
// logic: loads fail soft and never return an error.
type Adapter struct {
	kv  KV
	log *slog.Logger
}

// NewAdapter wraps kv. A nil logger uses slog.Default().
func NewAdapter(kv KV, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{kv: kv, log: logger}
}

// load returns the records under key, or nil on absence, read failure or
// unparseable content.
func (a *Adapter) load(key string) []record {
	raw, ok, err := a.kv.Get(key)
	if err != nil {
		a.log.Warn("store: read failed, starting empty", "key", key, "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var recs []record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		a.log.Info("store: discarding malformed collection", "key", key, "err", err)
		return nil
	}
	return recs
}

func (a *Adapter) save(key string, recs []record) error {
	if recs == nil {
		recs = []record{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.kv.Set(key, string(b)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadNotes returns the persisted active collection. Individual malformed
// records are skipped.
func (a *Adapter) LoadNotes() []Note {
	recs := a.load(KeyNotes)
	notes := make([]Note, 0, len(recs))
	for _, r := range recs {
		n, err := r.note()
		if err != nil {
			a.log.Info("store: skipping malformed note", "err", err)
			continue
		}
		notes = append(notes, n)
	}
	return notes
}

// LoadTrash returns the persisted trash collection. Records missing a valid
// deletedAt are skipped.
func (a *Adapter) LoadTrash() []TrashedNote {
	recs := a.load(KeyTrash)
	trash := make([]TrashedNote, 0, len(recs))
	for _, r := range recs {
		n, err := r.note()
		if err != nil {
			a.log.Info("store: skipping malformed trash entry", "err", err)
			continue
		}
		deleted, err := parseTime(r.DeletedAt)
		if err != nil {
			a.log.Info("store: skipping trash entry", "id", r.ID, "err", err)
			continue
		}
		trash = append(trash, n.Trashed(deleted))
	}
	return trash
}

// SaveNotes persists the active collection.
func (a *Adapter) SaveNotes(notes []Note) error {
	recs := make([]record, len(notes))
	for i, n := range notes {
		recs[i] = noteRecord(n)
	}
	return a.save(KeyNotes, recs)
}

// SaveTrash persists the trash collection.
func (a *Adapter) SaveTrash(trash []TrashedNote) error {
	recs := make([]record, len(trash))
	for i, t := range trash {
		recs[i] = noteRecord(t.Note)
		recs[i].DeletedAt = formatTime(t.DeletedAt)
	}
	return a.save(KeyTrash, recs)
}
