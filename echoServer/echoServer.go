package echoServer

import (
	"bytes"
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"sort"
	"strings"

	"httpecho/journal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	Host = "0.0.0.0"
	Port = "8080"
	Path = "/hello"
)

// Recorder keeps a copy of every served exchange.
type Recorder interface {
	Record(ctx context.Context, req models.Request, res models.Response) error
}

type Server struct {
	log      zerolog.Logger
	recorder Recorder
	router   *mux.Router
	srv      *http.Server
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

func Init(opts ...Option) *Server {
	s := &Server{
		log:    zerolog.Nop(),
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.HandleFunc(Path, s.HandleHello)

	s.srv = &http.Server{
		Handler:     s,
		ConnContext: connContext,
		ConnState:   s.connState,
		ErrorLog:    stdlog.New(s.log.With().Str("component", "http").Logger(), "", 0),
	}
	// one exchange per connection
	s.srv.SetKeepAlivesEnabled(false)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if rc, ok := connFrom(r.Context()); ok {
		rc.served.Store(true)
	}
	s.router.ServeHTTP(w, r)
}

// connState reports connections that net/http closed without handing a
// request to the router, e.g. after answering a malformed head with 400.
func (s *Server) connState(c net.Conn, state http.ConnState) {
	if state != http.StateClosed {
		return
	}
	rc, ok := c.(*recordingConn)
	if !ok || rc.served.Load() {
		return
	}

	s.log.Warn().
		Str("worker", rc.worker).
		Str("remote", c.RemoteAddr().String()).
		Str("request_line", rc.RequestLine()).
		Msg("Error handling request: connection closed before the request was handled")
}

// ListenAndServe binds addr and serves until Close is called.
// A bind failure is returned before anything is served.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}

	_, port, _ := net.SplitHostPort(l.Addr().String())
	s.log.Info().Str("addr", l.Addr().String()).Msgf("Server starting on port %s", port)
	s.log.Info().Msgf("Server is running. Visit http://localhost:%s%s in your browser or run the client application", port, Path)

	return s.Serve(l)
}

// Serve runs one goroutine per accepted connection.
func (s *Server) Serve(l net.Listener) error {
	err := s.srv.Serve(recordingListener{Listener: l})
	if err == http.ErrServerClosed {
		return nil
	}
	return errors.Wrap(err, "serve")
}

func (s *Server) Close() error {
	return s.srv.Close()
}

// HandleHello answers with a plain-text description of the request.
func (s *Server) HandleHello(w http.ResponseWriter, r *http.Request) {
	req := readRequest(r)
	log := s.log.With().Str("exchange", req.Id.String()).Str("worker", req.Worker).Logger()

	headers := zerolog.Arr()
	for _, f := range req.Headers {
		headers.Str(f.Name + ": " + f.Value)
	}
	log.Info().
		Str("method", req.Method).
		Str("uri", req.URI).
		Array("headers", headers).
		Msg("incoming request")

	res := models.NewTextResponse(Describe(req))
	for key, values := range res.Headers {
		w.Header()[key] = values
	}
	w.WriteHeader(res.Status)

	keys := make([]string, 0, len(res.Headers))
	for key := range res.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	resHeaders := zerolog.Arr()
	for _, key := range keys {
		resHeaders.Str(key + ": " + strings.Join(res.Headers[key], ", "))
	}
	log.Info().
		Int("status", res.Status).
		Array("headers", resHeaders).
		Int("body_length", len(res.Body)).
		Msg("outgoing response")

	if _, err := w.Write(res.Body); err != nil {
		log.Error().Err(errors.Wrap(err, "write response body")).Msg("error handling request")
	}

	if s.recorder != nil {
		if err := s.recorder.Record(r.Context(), req, res); err != nil {
			log.Error().Err(err).Msg("journal")
		}
	}
}

func readRequest(r *http.Request) models.Request {
	req := models.Request{
		Id:     uuid.New(),
		Method: r.Method,
		URI:    r.RequestURI,
	}
	if req.URI == "" {
		req.URI = r.URL.RequestURI()
	}

	if rc, ok := connFrom(r.Context()); ok {
		req.Worker = rc.worker
		if h, ok := parseHead(rc.Head()); ok {
			req.Headers = h
		}
	} else {
		req.Worker = nextWorker()
	}

	if req.Headers == nil {
		req.Headers = headerFromRequest(r)
	}

	return req
}

// Describe renders the response body for req.
func Describe(req models.Request) []byte {
	var b bytes.Buffer

	b.WriteString("Request Details:\n")
	fmt.Fprintf(&b, "Method: %s\n", req.Method)
	fmt.Fprintf(&b, "URI: %s\n", req.URI)
	b.WriteString("Headers:\n")
	for _, f := range req.Headers {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	fmt.Fprintf(&b, "\nHandled by thread: %s", req.Worker)

	return b.Bytes()
}
