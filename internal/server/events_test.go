package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/vapor/internal/engine"
)

func readEvent(t *testing.T, r *bufio.Reader) engine.Snapshot {
	t.Helper()
	var data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			break
		}
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			data = rest
		}
	}
	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("decode event %q: %v", data, err)
	}
	return snap
}

func TestEventsStream(t *testing.T) {
	srv, eng := testServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	first := readEvent(t, r)
	if len(first.Notes) != 0 {
		t.Errorf("initial notes = %d, want 0", len(first.Notes))
	}

	n, err := eng.Add("streamed", "")
	if err != nil {
		t.Fatal(err)
	}
	next := readEvent(t, r)
	if next.Version <= first.Version {
		t.Errorf("version = %d, want > %d", next.Version, first.Version)
	}
	if len(next.Notes) != 1 || next.Notes[0].ID != n.ID {
		t.Errorf("notes = %+v, want [%s]", next.Notes, n.ID)
	}

	eng.Delete(n.ID)
	last := readEvent(t, r)
	if len(last.Notes) != 0 || len(last.Trash) != 1 {
		t.Errorf("after delete: notes=%d trash=%d, want 0/1", len(last.Notes), len(last.Trash))
	}
	if last.Version != eng.Snapshot().Version {
		t.Errorf("version = %d, want %d", last.Version, eng.Snapshot().Version)
	}
}
