package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/urfave/negroni/v3"

	"github.com/jlais/visiondemo/internal/session"
)

const (
	ConnectionDetailsPath = "/api/connection-details"
	HealthPath            = "/health"

	maxRequestBody = 16 * 1024
)

// Server is a development token endpoint speaking the sandbox
// connection-details protocol.
type Server struct {
	issuer     *Issuer
	logger     *slog.Logger
	httpServer *http.Server
	prefix     string
}

func NewServer(addr string, issuer *Issuer, participantPrefix string, logger *slog.Logger) *Server {
	s := &Server{
		issuer: issuer,
		logger: logger,
		prefix: participantPrefix,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middlewares.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.HandleFunc(ConnectionDetailsPath, s.handleConnectionDetails)

	middlewares := []negroni.Handler{
		// always the first
		negroni.NewRecovery(),
		negroni.HandlerFunc(s.logRequest),
		cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", sandboxHeader},
		}),
	}
	return configureMiddlewares(mux, middlewares...)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting token server", "address", ln.Addr().String(), "livekit_url", s.issuer.ServerURL())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Token server is healthy."))
}

func (s *Server) handleConnectionDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req connectionRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomName := strings.TrimSpace(req.RoomName)
	if roomName == "" {
		roomName = "room-" + strings.Split(uuid.NewString(), "-")[0]
	}
	participantName := strings.TrimSpace(req.ParticipantName)
	if participantName == "" {
		participantName = session.RandomParticipantName(s.prefix)
	}

	token, err := s.issuer.Issue(roomName, participantName)
	if err != nil {
		s.logger.Error("could not issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusCreated, session.ConnectionDetails{
		ServerURL:        s.issuer.ServerURL(),
		RoomName:         roomName,
		ParticipantName:  participantName,
		ParticipantToken: token,
	})
}

func (s *Server) logRequest(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := time.Now()
	next(w, r)

	status := 0
	if rw, ok := w.(negroni.ResponseWriter); ok {
		status = rw.Status()
	}
	s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
}

func configureMiddlewares(handler http.Handler, middlewares ...negroni.Handler) *negroni.Negroni {
	n := negroni.New()
	for _, m := range middlewares {
		n.Use(m)
	}
	n.UseHandler(handler)
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
