package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lazypower/vapor/internal/engine"
)

// handleEvents streams snapshots as server-sent events: the current state
// first, then one event per committed change. A slow reader only ever sees
// the newest snapshot it has not yet received.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	latest := make(chan engine.Snapshot, 1)
	unsubscribe := s.eng.Subscribe(func(snap engine.Snapshot) {
		// Deliveries are serialized, so replacing a stale pending value is race free.
		select {
		case <-latest:
		default:
		}
		latest <- snap
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snap := s.eng.Snapshot()
	if err := writeEvent(w, snap); err != nil {
		return
	}
	flusher.Flush()
	sent := snap.Version

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-latest:
			if snap.Version <= sent {
				continue
			}
			if err := writeEvent(w, snap); err != nil {
				return
			}
			flusher.Flush()
			sent = snap.Version
		}
	}
}

func writeEvent(w http.ResponseWriter, snap engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data)
	return err
}
