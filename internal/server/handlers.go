package server

import (
	"io"
	"net/http"

	"github.com/sw33tLie/shopwatch/internal/utils"
)

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.Runner.Run(r.Context())
	if err != nil {
		utils.Log.Errorf("Cycle failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Run-Id", result.RunID)
	io.WriteString(w, result.Message)
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RepoURL, http.StatusFound)
}
