// Package client talks to a running vapor server. Only the serve process
// owns the store; every other command goes through this client.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/lazypower/vapor/internal/engine"
	"github.com/lazypower/vapor/internal/store"
)

const httpTimeout = 5 * time.Second

// ErrNotFound is returned when the server has no such route, usually because
// the configured URL points at something other than a matching vapor server.
var ErrNotFound = errors.New("not found")

// Client is an HTTP client for the vapor API.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. VAPOR_URL, when set, takes precedence.
func New(serverURL string) *Client {
	if u := os.Getenv("VAPOR_URL"); u != "" {
		serverURL = u
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// do sends a request with an optional JSON body and decodes the response
// into out when out is non-nil.
func (c *Client) do(method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.serverURL+path, r)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// result is the {"status": ...} body returned by mutation routes.
type result struct {
	Status string          `json:"status"`
	Undo   engine.Reversal `json:"undo"`
}

func (c *Client) applied(method, path string, body any) (bool, error) {
	var res result
	if err := c.do(method, path, body, &res); err != nil {
		return false, err
	}
	return res.Status == "ok", nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	return c.do(http.MethodGet, "/api/health", nil, nil) == nil
}

func (c *Client) Notes() ([]store.Note, error) {
	var notes []store.Note
	err := c.do(http.MethodGet, "/api/notes", nil, &notes)
	return notes, err
}

func (c *Client) Trash() ([]store.TrashedNote, error) {
	var trash []store.TrashedNote
	err := c.do(http.MethodGet, "/api/trash", nil, &trash)
	return trash, err
}

func (c *Client) Add(text, audioData string) (store.Note, error) {
	var n store.Note
	err := c.do(http.MethodPost, "/api/notes", map[string]string{
		"text":       text,
		"audio_data": audioData,
	}, &n)
	return n, err
}

func (c *Client) Update(id, text string) error {
	_, err := c.applied(http.MethodPatch, "/api/notes/"+url.PathEscape(id), map[string]string{"text": text})
	return err
}

func (c *Client) SetTag(id string, tag store.Tag) error {
	_, err := c.applied(http.MethodPut, "/api/notes/"+url.PathEscape(id)+"/tag", map[string]string{"tag": string(tag)})
	return err
}

// Delete trashes a note and returns its reversal. ok is false when the id
// was not active.
func (c *Client) Delete(id string) (rev engine.Reversal, ok bool, err error) {
	var res result
	if err := c.do(http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, &res); err != nil {
		return engine.Reversal{}, false, err
	}
	return res.Undo, res.Status == "ok", nil
}

// ClearAll trashes every active note. ok is false when there was nothing to
// clear, in which case there is no reversal to offer.
func (c *Client) ClearAll() (rev engine.Reversal, ok bool, err error) {
	var res result
	if err := c.do(http.MethodPost, "/api/notes/clear", nil, &res); err != nil {
		return engine.Reversal{}, false, err
	}
	return res.Undo, res.Status == "ok", nil
}

func (c *Client) Undo(rev engine.Reversal) (bool, error) {
	return c.applied(http.MethodPost, "/api/undo", rev)
}

func (c *Client) RestoreFromTrash(id string) (bool, error) {
	return c.applied(http.MethodPost, "/api/trash/"+url.PathEscape(id)+"/restore", nil)
}

func (c *Client) PermanentDelete(id string) (bool, error) {
	return c.applied(http.MethodDelete, "/api/trash/"+url.PathEscape(id), nil)
}

func (c *Client) ClearTrash() error {
	_, err := c.applied(http.MethodDelete, "/api/trash", nil)
	return err
}
