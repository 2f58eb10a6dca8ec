package article

import (
	"errors"
	"net/http"
	"strconv"

	"interlocutor/internal/domain/entity"
	"interlocutor/internal/handler/http/pathutil"
	"interlocutor/internal/handler/http/respond"
	simUC "interlocutor/internal/usecase/similarity"
)

// SimilarHandler serves the stored neighbor set for one article.
type SimilarHandler struct{ Svc *simUC.Service }

// ServeHTTP handles GET /articles/{id}/similar. The optional query parameter
// k caps the number of neighbors returned; it defaults to the service's
// configured top-K. An ingested article with no neighbors yet returns an
// empty list, not an error.
func (h SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := pathutil.ExtractArticleID(r.URL.Path, "/articles/", "/similar")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	id := entity.ArticleID(raw)

	k := 0
	if v := r.URL.Query().Get("k"); v != "" {
		k, err = strconv.Atoi(v)
		if err != nil || k <= 0 {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("k must be a positive integer"))
			return
		}
	}

	neighbors, err := h.Svc.GetSimilar(r.Context(), id, k)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	out := SimilarDTO{
		ArticleID: raw,
		Neighbors: make([]NeighborDTO, 0, len(neighbors)),
	}
	for _, n := range neighbors {
		out.Neighbors = append(out.Neighbors, NeighborDTO{
			ArticleID: string(n.ArticleID),
			Score:     n.Score,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
