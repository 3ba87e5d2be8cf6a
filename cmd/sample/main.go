// Command sample serves a small note store through github.com/bjaus/restful,
// answering in whichever registered format the client asks for.
//
// Run:
//
//	go run ./cmd/sample
//	go run ./cmd/sample -config sample.yaml
//
// Then explore:
//
//	GET  http://localhost:8080/v1/content-types   registered parsers and renderers
//	POST http://localhost:8080/v1/echo            parse any body, render it back
//	GET  http://localhost:8080/v1/notes           list notes
//	POST http://localhost:8080/v1/notes           create a note
//	GET  http://localhost:8080/v1/notes/{id}      get a note
//
// For example:
//
//	curl -H 'Accept: application/php-serialized' localhost:8080/v1/notes/1
//	curl -H 'Content-Type: application/yaml' --data-binary 'title: hi' localhost:8080/v1/notes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bjaus/restful"
	"github.com/bjaus/restful/phpserial"
)

func main() {
	configFlag := flag.String("config", "", "Path to a YAML config file")
	addrFlag := flag.String("addr", "", "Listen address (overrides the config file)")
	flag.Parse()

	cfg := restful.DefaultConfig()
	if *configFlag != "" {
		loaded, err := restful.LoadConfig(*configFlag)
		if err != nil {
			slog.Error("config failed", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	level, err := cfg.Level()
	if err != nil {
		slog.Error("config failed", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", cfg.Addr)

	if err := listenAndServe(ctx, cfg.Addr, newMux(cfg, logger)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

func newMux(cfg restful.Config, logger *slog.Logger) *http.ServeMux {
	a := restful.New(append(cfg.Options(), restful.WithLogger(logger))...)
	a.Use(cfg.Middleware(logger)...)

	s := &noteStore{notes: map[int]*Note{
		1: {ID: 1, Title: "Welcome", Text: "Ask for me as JSON, YAML, XML, CBOR, MessagePack or PHP.", CreatedAt: time.Now()},
	}, nextID: 2}

	mux := http.NewServeMux()
	mux.Handle("GET /v1/content-types", a.Handle(contentTypes(a)))
	mux.Handle("POST /v1/echo", a.Handle(handleEcho))
	mux.Handle("GET /v1/notes", a.Handle(s.handleList))
	mux.Handle("POST /v1/notes", a.Handle(s.handleCreate))
	mux.Handle("GET /v1/notes/{id}", a.Handle(s.handleGet))
	return mux
}

// listenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// ContentTypes lists what the server can read and write.
type ContentTypes struct {
	Parsers   []string `json:"parsers" yaml:"parsers"`
	Renderers []string `json:"renderers" yaml:"renderers"`
	Fallback  string   `json:"fallback" yaml:"fallback"`
}

func contentTypes(a *restful.API) restful.Handler {
	return func(_ context.Context, _ *restful.Request) (any, error) {
		resp := &ContentTypes{Fallback: a.Renderers().Fallback()}
		for ct := range a.Parsers().Parsers() {
			resp.Parsers = append(resp.Parsers, ct)
		}
		for ct := range a.Renderers().Renderers() {
			resp.Renderers = append(resp.Renderers, ct)
		}
		sort.Strings(resp.Parsers)
		sort.Strings(resp.Renderers)
		return resp, nil
	}
}

func handleEcho(_ context.Context, req *restful.Request) (any, error) {
	return map[string]any{
		"content_type": req.ContentType,
		"body":         req.Body,
	}, nil
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

// Note is a stored note.
type Note struct {
	ID        int       `json:"id" yaml:"id" xml:"id"`
	Title     string    `json:"title" yaml:"title" xml:"title"`
	Text      string    `json:"text,omitempty" yaml:"text,omitempty" xml:"text,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at" xml:"created_at"`
}

// PHPClassName names the class PHP clients unserialize notes into.
func (Note) PHPClassName() string { return "Note" }

type noteStore struct {
	mu     sync.RWMutex
	notes  map[int]*Note
	nextID int
}

func (s *noteStore) handleList(_ context.Context, _ *restful.Request) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *noteStore) handleGet(_ context.Context, req *restful.Request) (any, error) {
	id, err := strconv.Atoi(req.PathValue("id"))
	if err != nil {
		return nil, restful.Errorf(http.StatusBadRequest, "invalid note id %q", req.PathValue("id"))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, restful.Errorf(http.StatusNotFound, "note %d not found", id)
	}
	return n, nil
}

func (s *noteStore) handleCreate(_ context.Context, req *restful.Request) (any, error) {
	title, text, err := noteFields(req.Body)
	if err != nil {
		return nil, restful.Error(http.StatusUnprocessableEntity, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := &Note{ID: s.nextID, Title: title, Text: text, CreatedAt: time.Now()}
	s.notes[n.ID] = n
	s.nextID++

	return &restful.Response{
		Status: http.StatusCreated,
		Header: http.Header{"Location": {fmt.Sprintf("/v1/notes/%d", n.ID)}},
		Data:   n,
	}, nil
}

// noteFields reads title and text from any parsed body shape: a map from
// JSON, YAML, CBOR, MessagePack or forms, or an object from PHP.
func noteFields(body any) (title, text string, err error) {
	var get func(string) (any, bool)
	switch b := body.(type) {
	case map[string]any:
		get = func(k string) (any, bool) {
			v, ok := b[k]
			return v, ok
		}
	case *phpserial.Object:
		get = b.Get
	default:
		return "", "", errors.New("body must be an object with a title")
	}

	t, _ := get("title")
	title, _ = t.(string)
	if title == "" {
		return "", "", errors.New("title is required")
	}
	x, _ := get("text")
	text, _ = x.(string)
	return title, text, nil
}
