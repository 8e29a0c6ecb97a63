// Package server serves the monitor page and its websocket stream.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"
	"net/http"
	"regexp"

	"github.com/gorilla/websocket"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/soar/padmapper/internal/hub"
)

//go:embed web/index.html
var indexHTML []byte

// Origin checking is gorilla's default: the page must come from this host.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	commands    hub.CommandHandler
	addr        string
	page        []byte
	httpServer  *http.Server
}

// New prepares the server. The embedded page is minified once here.
func New(h *hub.Hub, b *hub.Broadcaster, commands hub.CommandHandler, addr string) (*Server, error) {
	page, err := minifyPage(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("server: minify page: %w", err)
	}
	return &Server{
		hub:         h,
		broadcaster: b,
		commands:    commands,
		addr:        addr,
		page:        page,
	}, nil
}

func minifyPage(src []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)

	var out bytes.Buffer
	if err := m.Minify("text/html", &out, bytes.NewReader(src)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Handler returns the routes: the monitor page at "/" and the stream at "/ws".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleStream)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.page)
}

// handleStream upgrades a monitor connection, registers it and sends it the
// current snapshot before any delta.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Server: websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	c := hub.NewClient(s.hub, conn)
	s.hub.Register(c)
	s.broadcaster.SendInitialState(c)
	if s.commands == nil {
		log.Printf("Server: monitor %s connected (read-only)", r.RemoteAddr)
	}

	go c.WritePump()
	go c.ReadPump(s.commands)
}

func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	log.Printf("Server: monitor listening on http://%s", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		log.Println("Server: shutting down...")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
