package http

import (
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/acme/autocert"

	"github.com/abradburne/talky"
)

// Server represents an HTTP server.
type Server struct {
	ln net.Listener

	// Services
	JobService      talky.JobService
	ArtifactService talky.ArtifactService
	VoiceService    talky.VoiceService
	JobEnqueuer     talky.JobEnqueuer

	// Optional; nil when the engine has no local model to manage.
	ModelService talky.ModelService

	// Server options.
	Addr        string // bind address
	Host        string // external hostname
	Autocert    bool   // ACME autocert
	Recoverable bool   // panic recovery

	LogOutput io.Writer
}

// NewServer returns a new instance of Server.
func NewServer() *Server {
	return &Server{
		Recoverable: true,
		LogOutput:   ioutil.Discard,
	}
}

// Open opens the server.
func (s *Server) Open() error {
	// Open listener on specified bind address.
	// Use HTTPS port if autocert is enabled.
	if s.Autocert {
		s.ln = autocert.NewListener(s.Host)
	} else {
		ln, err := net.Listen("tcp", s.Addr)
		if err != nil {
			return err
		}
		s.ln = ln
	}

	// Start HTTP server.
	go http.Serve(s.ln, s.router())

	return nil
}

// Close closes the socket.
func (s *Server) Close() error {
	if s.ln != nil {
		s.ln.Close()
	}
	return nil
}

// URL returns a base URL string with the scheme and host.
// This is available after the server has been opened.
func (s *Server) URL() url.URL {
	if s.ln == nil {
		return url.URL{}
	}

	if s.Autocert {
		return url.URL{Scheme: "https", Host: s.Host}
	}
	return url.URL{Scheme: "http", Host: s.ln.Addr().String()}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	// Attach router middleware.
	r.Use(middleware.RealIP)
	r.Use(s.logContext)
	if s.Recoverable {
		r.Use(middleware.Recoverer)
	}
	r.Mount("/debug", middleware.Profiler())

	// Create API routes.
	r.Route("/", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/health", s.handleHealth)
		r.Mount("/jobs", s.jobHandler())
		r.Mount("/voices", s.voiceHandler())
		r.Mount("/model", s.modelHandler())
	})

	return r
}

// logContext attaches the server's log output to each request context
// so error responses can be logged where they are written.
func (s *Server) logContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s.LogOutput)))
	})
}

func (s *Server) jobHandler() *jobHandler {
	h := newJobHandler()
	h.jobService = s.JobService
	h.artifactService = s.ArtifactService
	h.jobEnqueuer = s.JobEnqueuer
	h.logOutput = s.LogOutput
	return h
}

func (s *Server) voiceHandler() *voiceHandler {
	h := newVoiceHandler()
	h.voiceService = s.VoiceService
	return h
}

func (s *Server) modelHandler() *modelHandler {
	h := newModelHandler()
	h.modelService = s.ModelService
	return h
}
