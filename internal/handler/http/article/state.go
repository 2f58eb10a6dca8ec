package article

import (
	"errors"
	"net/http"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/handler/http/pathutil"
	"interlocutor/internal/handler/http/respond"
	simUC "interlocutor/internal/usecase/similarity"
)

// StateHandler reports how far through the pipeline an article has progressed.
type StateHandler struct{ Svc *simUC.Service }

// ServeHTTP handles GET /articles/{id}/state.
func (h StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := pathutil.ExtractArticleID(r.URL.Path, "/articles/", "/state")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := h.Svc.ProcessingState(r.Context(), entity.ArticleID(raw))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, StateDTO{
		ArticleID:       raw,
		HasMetadata:     state.HasMetadata,
		HasContent:      state.HasContent,
		HasPreprocessed: state.HasPreprocessed,
		HasVector:       state.HasVector,
		VectorIsStale:   state.VectorIsStale,
	})
}
