package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vizdeck/pkg/document"
	"github.com/matzehuels/vizdeck/pkg/engine"
	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand creates the serve command: an HTTP API exposing ad-hoc
// rendering, a document library, and live sessions over websockets.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rendering API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	eng, err := c.newEngine(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer eng.Close()

	docs, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer docs.Close(context.Background())

	addr := opts.addr
	if addr == "" {
		addr = c.Config.Serve.Addr
	}

	srv := &server{
		eng:    eng,
		docs:   docs,
		logger: c.Logger,
		width:  c.Config.Width,
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	printInfo("Listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// newStore picks the document backend: MongoDB when configured,
// otherwise in-memory.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.Config.Mongo.URI == "" {
		c.Logger.Debug("using in-memory document store")
		return store.NewMemoryStore(), nil
	}
	c.Logger.Debug("using mongodb document store", "uri", c.Config.Mongo.URI)
	return store.NewMongoStore(ctx, store.MongoConfig{
		URI:        c.Config.Mongo.URI,
		Database:   c.Config.Mongo.Database,
		Collection: c.Config.Mongo.Collection,
	})
}

// server holds the HTTP API state.
type server struct {
	eng      *engine.Engine
	docs     store.Store
	logger   *log.Logger
	width    float64
	upgrader websocket.Upgrader
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/render", s.handleRender)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handlePutDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Put("/", s.handlePutDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/render", s.handleRenderDocument)
			r.Get("/live", s.handleLive)
		})
	})

	return r
}

// handleRender renders a document posted in the request body.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading request body"))
		return
	}
	s.renderBody(w, r, body)
}

// handleRenderDocument renders a stored document.
func (s *server) handleRenderDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.renderBody(w, r, doc.Body)
}

func (s *server) renderBody(w http.ResponseWriter, r *http.Request, body []byte) {
	doc, err := document.Parse(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	width := s.width
	if doc.Width > 0 {
		width = doc.Width
	}
	if v := r.URL.Query().Get("width"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid width %q", v))
			return
		}
		width = parsed
	}

	result, err := s.eng.Render(r.Context(), doc.Blocks, width)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Block-Errors", strconv.Itoa(len(result.Errors)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.SVG)
}

func (s *server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var doc store.Document
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(&doc); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding document"))
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		doc.ID = id
	}

	// Reject bodies that do not parse as a document. Rendering errors
	// inside blocks are still allowed; those surface at render time.
	if _, err := document.Parse(doc.Body); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.docs.Put(r.Context(), &doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &doc)
}

func (s *server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// liveMessage is one client request on a live session.
type liveMessage struct {
	// Type is "param" or "update".
	Type string `json:"type"`

	// Name and Value carry a parameter change for "param" messages.
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`

	// Body carries a replacement document for "update" messages.
	Body []byte `json:"body,omitempty"`
}

// liveFrame is one server push on a live session.
type liveFrame struct {
	Type   string              `json:"type"`
	SVG    string              `json:"svg,omitempty"`
	Width  float64             `json:"width,omitempty"`
	Height float64             `json:"height,omitempty"`
	Errors []engine.BlockError `json:"errors,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// handleLive upgrades to a websocket and runs an interactive session
// over a stored document. Parameter changes re-render only the charts
// subscribed to the parameter; document updates settle through the
// debouncer before re-rendering.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	stored, err := s.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := document.Parse(stored.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	width := s.width
	if doc.Width > 0 {
		width = doc.Width
	}

	session := s.eng.NewSession(doc.Blocks, width)
	defer session.Close()

	// Writes are funneled through one goroutine; gorilla connections
	// allow a single concurrent writer. A debounced re-render can still
	// be in flight when the client disconnects, so its late push must
	// not touch a dead channel: sends select against done and drop the
	// frame once the handler has returned.
	frames := make(chan liveFrame, 8)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case frame := <-frames:
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}
	}()

	send := func(frame liveFrame) {
		select {
		case frames <- frame:
		case <-done:
		}
	}

	push := func(result *engine.Result, err error) {
		if err != nil {
			send(liveFrame{Type: "error", Error: err.Error()})
			return
		}
		send(liveFrame{
			Type:   "render",
			SVG:    string(result.SVG),
			Width:  result.Width,
			Height: result.Height,
			Errors: result.Errors,
		})
	}

	session.OnRender(push)
	push(session.Render(r.Context()))

	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "param":
			session.SetParam(r.Context(), msg.Name, msg.Value)
			svg, height := session.Compose()
			send(liveFrame{Type: "render", SVG: string(svg), Width: width, Height: height})
		case "update":
			fresh, err := document.Parse(msg.Body)
			if err != nil {
				send(liveFrame{Type: "error", Error: err.Error()})
				continue
			}
			session.Update(fresh.Blocks)
		default:
			send(liveFrame{Type: "error", Error: "unknown message type"})
		}
	}
}

// apiError is the JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrCodeDocumentNotFound),
		errors.Is(err, errors.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidDocument),
		errors.Is(err, errors.ErrCodeSpec):
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, apiError{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}
