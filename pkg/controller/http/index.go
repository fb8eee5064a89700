package http

import (
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/utils/errutil"
)

// Index endpoints are registered only when the indexing use case is
// configured. Responses carry vectors' metadata, never file content.

func (s *Server) buildIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		UserID   string `json:"user_id"`
		DeviceID string `json:"device_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	index, err := s.uc.Indexing.Build(ctx, req.UserID, req.DeviceID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, indexSummary(index))
}

func (s *Server) refreshIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		UserID   string `json:"user_id"`
		DeviceID string `json:"device_id"`
		Path     string `json:"path"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("path is required"), http.StatusBadRequest)
		return
	}

	index, err := s.uc.Indexing.Refresh(ctx, req.UserID, req.DeviceID, req.Path)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, indexSummary(index))
}

func indexSummary(index *model.MemoryIndex) any {
	return struct {
		UserID       string `json:"user_id"`
		DeviceID     string `json:"device_id"`
		Dimension    int    `json:"dimension"`
		TrackedFiles int    `json:"tracked_files"`
		Chunks       int    `json:"chunks"`
		ConceptLinks int    `json:"concept_links"`
	}{
		UserID:       index.UserID,
		DeviceID:     index.DeviceID,
		Dimension:    index.Dimension,
		TrackedFiles: len(index.TrackedFiles),
		Chunks:       len(index.Chunks),
		ConceptLinks: len(index.ConceptGraph),
	}
}

func (s *Server) queryIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	userID := q.Get("user_id")
	deviceID := q.Get("device_id")
	text := q.Get("q")
	if userID == "" || deviceID == "" || text == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("user_id, device_id, and q query parameters are required"), http.StatusBadRequest)
		return
	}

	topK := 5
	if raw := q.Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errutil.HandleHTTP(ctx, w, goerr.New("invalid top_k"), http.StatusBadRequest)
			return
		}
		topK = parsed
	}

	hits, err := s.uc.Indexing.Query(ctx, userID, deviceID, text, topK)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	type hitResponse struct {
		ChunkID    string  `json:"chunk_id"`
		Path       string  `json:"path"`
		StartLine  int     `json:"start_line"`
		EndLine    int     `json:"end_line"`
		ChunkType  string  `json:"chunk_type"`
		Similarity float64 `json:"similarity"`
	}
	resp := struct {
		Hits []hitResponse `json:"hits"`
	}{}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, hitResponse{
			ChunkID:    string(hit.Chunk.ID),
			Path:       hit.Chunk.Source.Path,
			StartLine:  hit.Chunk.Source.StartLine,
			EndLine:    hit.Chunk.Source.EndLine,
			ChunkType:  hit.Chunk.ChunkType.String(),
			Similarity: hit.Similarity,
		})
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) annotateChunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		UserID   string `json:"user_id"`
		DeviceID string `json:"device_id"`
		ChunkID  string `json:"chunk_id"`
		Consent  bool   `json:"consent"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	text, err := s.uc.Indexing.AnnotateChunk(ctx, req.UserID, req.DeviceID, model.ChunkID(req.ChunkID), req.Consent)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"annotation": text})
}
