package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/utils/errutil"
)

type patchResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func toPatchResponses(patches []*model.KnowledgePatch) []patchResponse {
	out := make([]patchResponse, len(patches))
	for i, p := range patches {
		out[i] = patchResponse{
			ID:        string(p.ID),
			Content:   p.Content,
			Type:      p.Type.String(),
			CreatedAt: p.CreatedAt,
		}
	}
	return out
}

func (s *Server) addPatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		UserID  string `json:"user_id"`
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	patchType := types.PatchType(req.Type)
	if !patchType.IsValid() {
		errutil.HandleHTTP(ctx, w, goerr.New("invalid patch type", goerr.V("type", req.Type)), http.StatusBadRequest)
		return
	}

	patch, err := s.uc.Recall.AddPatch(ctx, req.UserID, req.Content, patchType)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, patchResponse{
		ID:        string(patch.ID),
		Content:   patch.Content,
		Type:      patch.Type.String(),
		CreatedAt: patch.CreatedAt,
	})
}

func (s *Server) listPatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id query parameter is required"), http.StatusBadRequest)
		return
	}

	patches, err := s.uc.Recall.List(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct {
		Patches []patchResponse `json:"patches"`
	}{Patches: toPatchResponses(patches)})
}

func (s *Server) searchRecall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	userID := q.Get("user_id")
	query := q.Get("q")
	if userID == "" || query == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id and q query parameters are required"), http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid limit"), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	patches, err := s.uc.Recall.Search(ctx, userID, query, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, struct {
		Patches []patchResponse `json:"patches"`
	}{Patches: toPatchResponses(patches)})
}
