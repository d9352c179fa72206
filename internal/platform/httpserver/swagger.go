package httpserver

import (
	_ "embed"
	"net/http"
)

//go:embed swagger.json
var swaggerDoc []byte

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(swaggerDoc)
}
