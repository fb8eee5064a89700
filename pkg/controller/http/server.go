package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mentor-lab/chiron/pkg/usecase"
	"github.com/mentor-lab/chiron/pkg/utils/logging"
)

// Server is the REST surface of the mentor engine. Every session endpoint
// returns the session's stage plus a nextStage/nextPrompt pair so callers
// can render progress without re-deriving state machine logic.
type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()
	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Get("/", s.listSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Get("/summary", s.sessionSummary)
				r.Post("/observation", s.recordObservation)
				r.Post("/baseline", s.recordBaseline)
				r.Post("/questions", s.generateQuestions)
				r.Post("/answers", s.answerQuestion)
				r.Post("/pain-points", s.identifyPainPoints)
				r.Post("/frame", s.frameProblem)
				r.Get("/guidance", s.getGuidance)
				r.Post("/decide", s.decideAction)
				r.Post("/loop-back", s.loopBack)
				r.Post("/complete", s.completeSession)
				r.Post("/feedback", s.recordFeedback)
			})
		})

		r.Route("/recall", func(r chi.Router) {
			r.Post("/patches", s.addPatch)
			r.Get("/patches", s.listPatches)
			r.Get("/search", s.searchRecall)
		})

		r.Get("/domains", s.listDomains)

		if s.uc.Indexing != nil {
			r.Route("/index", func(r chi.Router) {
				r.Post("/build", s.buildIndex)
				r.Post("/refresh", s.refreshIndex)
				r.Get("/query", s.queryIndex)
				r.Post("/annotate", s.annotateChunk)
			})
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
