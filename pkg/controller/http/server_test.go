package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
	server "github.com/mentor-lab/chiron/pkg/controller/http"
	"github.com/mentor-lab/chiron/pkg/service/gateway"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	svcmodel "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/service/retrieval"
	"github.com/mentor-lab/chiron/pkg/usecase"
)

func testModule() *model.DomainModule {
	return &model.DomainModule{
		Domain: "car_repair",
		DiagnosticTree: &model.TreeNode{
			ID: "root",
			Question: &model.Question{
				ID:       "q-start",
				Text:     "Does the engine turn over at all?",
				Priority: types.PriorityPrimary,
				Narrows:  []types.ProblemType{types.ProblemBrokenFeature},
			},
		},
		ProblemTypes: []model.ProblemTypeDef{
			{
				Type:             types.ProblemBrokenFeature,
				RootCause:        types.RootCauseLogicFault,
				SolutionPatterns: []string{"check battery terminals", "test the starter relay"},
			},
		},
	}
}

func newServer(t *testing.T) *server.Server {
	t.Helper()
	registry := retrieval.NewRegistry()
	gt.NoError(t, registry.Register(testModule())).Required()
	return server.New(usecase.New(memory.New(), usecase.WithRegistry(registry)))
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst)).Required()
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
}

func TestSessionEndpoints(t *testing.T) {
	srv := newServer(t)

	t.Run("create returns the envelope", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions", map[string]string{
			"user_id": "user-1",
			"domain":  "car_repair",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var resp struct {
			SessionID  string `json:"session_id"`
			Stage      string `json:"stage"`
			Status     string `json:"status"`
			NextStage  string `json:"next_stage"`
			NextPrompt string `json:"next_prompt"`
		}
		decodeBody(t, rec, &resp)
		gt.String(t, resp.SessionID).NotEqual("")
		gt.Value(t, resp.Stage).Equal("observe")
		gt.Value(t, resp.Status).Equal("in_progress")
		gt.Value(t, resp.NextStage).Equal("baseline")
		gt.String(t, resp.NextPrompt).NotEqual("")
	})

	t.Run("rejects a create without a domain", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions", map[string]string{"user_id": "user-1"})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/sessions/no-such-id", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestMentorLoopOverHTTP(t *testing.T) {
	srv := newServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions", map[string]string{
		"user_id": "driver-1",
		"domain":  "car_repair",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var created struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, rec, &created)
	base := "/api/sessions/" + created.SessionID

	rec = doJSON(t, srv, http.MethodPost, base+"/observation", map[string]any{
		"description": "The car won't start and makes a clicking noise",
		"evidence":    []map[string]string{{"kind": "image", "ref": "engine.jpg"}},
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var observed struct {
		Stage      string `json:"stage"`
		Sufficient bool   `json:"sufficient"`
	}
	decodeBody(t, rec, &observed)
	gt.Bool(t, observed.Sufficient).True()
	gt.Value(t, observed.Stage).Equal("baseline")

	// Before the baseline, guidance is refused and decide says ask
	rec = doJSON(t, srv, http.MethodGet, base+"/guidance", nil)
	gt.Number(t, rec.Code).Equal(http.StatusConflict)

	rec = doJSON(t, srv, http.MethodPost, base+"/baseline", map[string]any{
		"what_doesnt_work":  []string{"starting the engine"},
		"previous_attempts": []string{"turned the key repeatedly"},
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodPost, base+"/questions", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var asked struct {
		Stage     string `json:"stage"`
		Questions []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"questions"`
	}
	decodeBody(t, rec, &asked)
	gt.Value(t, asked.Stage).Equal("pain_points")
	gt.Bool(t, len(asked.Questions) >= 1).True()

	rec = doJSON(t, srv, http.MethodPost, base+"/answers", map[string]string{
		"question_id": asked.Questions[0].ID,
		"answer":      "yes but then it just clicks",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodPost, base+"/pain-points", map[string]any{
		"answers": map[string]string{asked.Questions[0].ID: "I'm stuck after the click"},
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodPost, base+"/frame", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var framed struct {
		Stage string `json:"stage"`
		Frame struct {
			PrimaryType string  `json:"primary_type"`
			Confidence  float64 `json:"confidence"`
		} `json:"frame"`
	}
	decodeBody(t, rec, &framed)
	gt.Value(t, framed.Stage).Equal("guide")
	gt.Value(t, framed.Frame.PrimaryType).Equal("broken_functionality")
	gt.Bool(t, framed.Frame.Confidence > 0).True()

	rec = doJSON(t, srv, http.MethodPost, base+"/decide", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var decided struct {
		Action struct {
			Type      string `json:"type"`
			Reasoning string `json:"reasoning"`
			Guidance  []struct {
				StepNumber int    `json:"step_number"`
				Action     string `json:"action"`
			} `json:"guidance"`
		} `json:"action"`
	}
	decodeBody(t, rec, &decided)
	gt.Value(t, decided.Action.Type).Equal("guide")
	gt.Value(t, decided.Action.Reasoning).Equal("diagnostic phases complete")
	gt.Bool(t, len(decided.Action.Guidance) >= 1).True()

	rec = doJSON(t, srv, http.MethodGet, base+"/guidance", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodPost, base+"/complete", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var completed struct {
		Stage  string `json:"stage"`
		Status string `json:"status"`
	}
	decodeBody(t, rec, &completed)
	gt.Value(t, completed.Stage).Equal("complete")
	gt.Value(t, completed.Status).Equal("complete")

	rec = doJSON(t, srv, http.MethodPost, base+"/feedback", map[string]any{
		"resolved": true,
		"comment":  "it was the battery",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, base+"/summary", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions?user_id=driver-1", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var listed struct {
		Sessions []struct {
			SessionID string `json:"session_id"`
		} `json:"sessions"`
	}
	decodeBody(t, rec, &listed)
	gt.Array(t, listed.Sessions).Length(1)
}

func TestRecallEndpoints(t *testing.T) {
	srv := newServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/recall/patches", map[string]string{
		"user_id": "user-1",
		"content": "battery terminals corrode in winter",
		"type":    "concept",
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	t.Run("rejects an invalid type", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/recall/patches", map[string]string{
			"user_id": "user-1",
			"content": "x",
			"type":    "gossip",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("search requires parameters", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/recall/search?user_id=user-1", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("search finds ranked patches", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/recall/search?user_id=user-1&q=battery", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var resp struct {
			Patches []struct {
				Content string `json:"content"`
			} `json:"patches"`
		}
		decodeBody(t, rec, &resp)
		gt.Array(t, resp.Patches).Length(1)
	})

	t.Run("list returns the ledger", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/recall/patches?user_id=user-1", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})
}

func TestDomainsEndpoint(t *testing.T) {
	srv := newServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/domains", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Domains []string `json:"domains"`
	}
	decodeBody(t, rec, &resp)
	gt.Array(t, resp.Domains).Equal([]string{"car_repair"})
}

func TestIndexEndpoints(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.md")
	gt.NoError(t, os.WriteFile(path, []byte("Battery voltage should read above twelve volts."), 0o644)).Required()

	g, err := gateway.New([]string{root})
	gt.NoError(t, err).Required()
	embedder := svcmodel.NewLocalEmbedder()

	registry := retrieval.NewRegistry()
	gt.NoError(t, registry.Register(testModule())).Required()
	uc := usecase.New(memory.New(),
		usecase.WithRegistry(registry),
		usecase.WithModels(svcmodel.NewRouter(embedder)),
		usecase.WithIndexing(g, indexer.New(g, embedder)),
	)
	srv := server.New(uc)

	rec := doJSON(t, srv, http.MethodPost, "/api/index/build", map[string]string{
		"user_id":   "user-1",
		"device_id": "laptop",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var built struct {
		TrackedFiles int `json:"tracked_files"`
		Chunks       int `json:"chunks"`
	}
	decodeBody(t, rec, &built)
	gt.Number(t, built.TrackedFiles).Equal(1)
	gt.Bool(t, built.Chunks >= 1).True()

	t.Run("query returns hits with provenance only", func(t *testing.T) {
		url := fmt.Sprintf("/api/index/query?user_id=user-1&device_id=laptop&q=%s", "battery")
		rec := doJSON(t, srv, http.MethodGet, url, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var resp struct {
			Hits []struct {
				Path       string  `json:"path"`
				Similarity float64 `json:"similarity"`
			} `json:"hits"`
		}
		decodeBody(t, rec, &resp)
		gt.Bool(t, len(resp.Hits) >= 1).True()
		gt.Value(t, resp.Hits[0].Path).Equal(path)
	})

	t.Run("refresh drops deleted files", func(t *testing.T) {
		gt.NoError(t, os.Remove(path)).Required()
		rec := doJSON(t, srv, http.MethodPost, "/api/index/refresh", map[string]string{
			"user_id":   "user-1",
			"device_id": "laptop",
			"path":      path,
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var resp struct {
			TrackedFiles int `json:"tracked_files"`
		}
		decodeBody(t, rec, &resp)
		gt.Number(t, resp.TrackedFiles).Equal(0)
	})

	t.Run("annotation without consent is forbidden", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/index/annotate", map[string]any{
			"user_id":   "user-1",
			"device_id": "laptop",
			"chunk_id":  "some-chunk",
			"consent":   false,
		})
		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})
}

type stubReasoning struct{}

func (m *stubReasoning) Reason(ctx context.Context, prompt string) (string, error) {
	return "summary", nil
}

func TestAnnotateOutsidePermissionBoundary(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.md")
	gt.NoError(t, os.WriteFile(path, []byte("Battery voltage should read above twelve volts."), 0o644)).Required()

	repo := memory.New()
	embedder := svcmodel.NewLocalEmbedder()
	registry := retrieval.NewRegistry()
	gt.NoError(t, registry.Register(testModule())).Required()

	newSrv := func(g *gateway.Local) *server.Server {
		return server.New(usecase.New(repo,
			usecase.WithRegistry(registry),
			usecase.WithModels(svcmodel.NewRouter(embedder, svcmodel.WithReasoning(&stubReasoning{}))),
			usecase.WithIndexing(g, indexer.New(g, embedder)),
		))
	}

	open, err := gateway.New([]string{root})
	gt.NoError(t, err).Required()
	srv := newSrv(open)

	rec := doJSON(t, srv, http.MethodPost, "/api/index/build", map[string]string{
		"user_id":   "user-1",
		"device_id": "laptop",
	})
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, "/api/index/query?user_id=user-1&device_id=laptop&q=battery", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var queried struct {
		Hits []struct {
			ChunkID string `json:"chunk_id"`
		} `json:"hits"`
	}
	decodeBody(t, rec, &queried)
	gt.Bool(t, len(queried.Hits) >= 1).True()

	// The file was revoked after indexing, so annotation must be refused
	// even with consent.
	revoked, err := gateway.New([]string{root}, gateway.WithExclusions("notes.md"))
	gt.NoError(t, err).Required()
	srv = newSrv(revoked)

	rec = doJSON(t, srv, http.MethodPost, "/api/index/annotate", map[string]any{
		"user_id":   "user-1",
		"device_id": "laptop",
		"chunk_id":  queried.Hits[0].ChunkID,
		"consent":   true,
	})
	gt.Number(t, rec.Code).Equal(http.StatusForbidden)
}

func TestIndexEndpointsAbsentWithoutGateway(t *testing.T) {
	srv := newServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/index/build", map[string]string{
		"user_id": "user-1", "device_id": "laptop",
	})
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
}
