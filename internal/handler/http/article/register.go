package article

import (
	"net/http"

	simUC "interlocutor/internal/usecase/similarity"
)

// Register registers the article query routes with the given mux.
// Both routes are read-only; the pipeline worker is the only writer.
func Register(mux *http.ServeMux, svc *simUC.Service) {
	mux.Handle("GET /articles/{id}/similar", SimilarHandler{svc})
	mux.Handle("GET /articles/{id}/state", StateHandler{svc})
}
