package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/vizdeck/pkg/engine"
	"github.com/matzehuels/vizdeck/pkg/render"
	"github.com/matzehuels/vizdeck/pkg/store"
)

const serveTestDoc = `title: Fleet
blocks:
  - kind: source
    name: fleet
    data:
      - {label: a, value: 1}
      - {label: b, value: 2}
  - kind: chart
    source: fleet
    visualize:
      type: box
`

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()

	renderers := render.NewRegistry()
	err := renderers.Register("box", func(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
		c.Clear()
		c.Printf(`  <rect width="%.1f" height="80"/>`+"\n", c.Width())
		c.SetHeight(80)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := &server{
		eng:    engine.New(engine.Options{Renderers: renderers}),
		docs:   store.NewMemoryStore(),
		logger: log.New(io.Discard),
		width:  960,
	}

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { srv.eng.Close() })
	return srv, ts
}

func TestServeRender(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/render", "application/yaml", strings.NewReader(serveTestDoc))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if n := resp.Header.Get("X-Block-Errors"); n != "0" {
		t.Errorf("X-Block-Errors = %q, want 0", n)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<svg")) {
		t.Error("response is not an SVG document")
	}
}

func TestServeRenderInvalidDocument(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/render", "application/yaml", strings.NewReader("title: Empty\nblocks: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code == "" {
		t.Error("error envelope missing code")
	}
}

func TestServeRenderBadWidth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/render?width=abc", "application/yaml", strings.NewReader(serveTestDoc))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServeDocumentLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	// Create.
	payload, _ := json.Marshal(store.Document{Title: "Fleet", Body: []byte(serveTestDoc)})
	resp, err := http.Post(ts.URL+"/documents", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	var created store.Document
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if created.ID == "" {
		t.Fatal("created document has no ID")
	}

	// List.
	resp, err = http.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatal(err)
	}
	var listed []*store.Document
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}

	// Render stored.
	resp, err = http.Get(ts.URL + "/documents/" + created.ID + "/render")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("<svg")) {
		t.Fatalf("stored render: status %d, body %q", resp.StatusCode, body[:min(len(body), 60)])
	}

	// Delete.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/documents/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Gone.
	resp, err = http.Get(ts.URL + "/documents/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestServeLiveDisconnectDuringRender(t *testing.T) {
	const liveDoc = `title: Slow
blocks:
  - kind: chart
    visualize:
      type: slow
`
	renderers := render.NewRegistry()
	err := renderers.Register("slow", func(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
		time.Sleep(400 * time.Millisecond)
		c.Clear()
		c.Printf(`  <rect width="%.1f" height="60"/>`+"\n", c.Width())
		c.SetHeight(60)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := &server{
		eng: engine.New(engine.Options{
			Renderers:     renderers,
			DebounceDelay: 50 * time.Millisecond,
		}),
		docs:   store.NewMemoryStore(),
		logger: log.New(io.Discard),
		width:  960,
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { srv.eng.Close() })

	doc := &store.Document{Title: "Slow", Body: []byte(liveDoc)}
	if err := srv.docs.Put(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/documents/" + doc.ID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	var frame liveFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("initial frame: %v", err)
	}
	if frame.Type != "render" {
		t.Fatalf("initial frame type = %q", frame.Type)
	}

	// Kick off a debounced re-render, then disconnect while the slow
	// renderer is still running.
	if err := conn.WriteJSON(liveMessage{Type: "update", Body: []byte(liveDoc)}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	conn.Close()

	// The late render finishes after the handler has torn down; its
	// push must be dropped, not crash the server.
	time.Sleep(600 * time.Millisecond)

	resp, err := http.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatalf("server unreachable after disconnect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServePutRejectsUnparseableBody(t *testing.T) {
	_, ts := newTestServer(t)

	payload, _ := json.Marshal(store.Document{Title: "Bad", Body: []byte("blocks: []")})
	resp, err := http.Post(ts.URL+"/documents", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
