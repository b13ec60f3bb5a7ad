package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sw33tLie/shopwatch/internal/utils"
	"github.com/sw33tLie/shopwatch/pkg/polling"
)

const RepoURL = "https://github.com/sw33tLie/shopwatch"

// CycleRunner runs one scrape-and-notify cycle.
type CycleRunner interface {
	Run(ctx context.Context) (*polling.Result, error)
}

type Server struct {
	Runner   CycleRunner
	Username string
	Password string
}

func New(runner CycleRunner, user, pass string) *Server {
	return &Server{
		Runner:   runner,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.basicAuth(s.handleRun))
	mux.HandleFunc("GET /repo", s.handleRepo)
	return mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a cycle fetches, delivers and persists before answering
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	utils.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
