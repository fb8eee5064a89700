package usecase

import (
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/service/classifier"
	"github.com/mentor-lab/chiron/pkg/service/indexer"
	modelsvc "github.com/mentor-lab/chiron/pkg/service/model"
	"github.com/mentor-lab/chiron/pkg/service/retrieval"
)

// UseCases aggregates the mentor engine's use cases. Session drives the
// diagnostic loop, Recall manages the append-only ledger, and Indexing
// (present only when a file gateway is configured) manages the local
// embedding index.
type UseCases struct {
	repo       interfaces.Repository
	classifier *classifier.Classifier
	registry   *retrieval.Registry
	retrieval  *retrieval.Service
	models     *modelsvc.Router
	gateway    interfaces.FileGateway
	indexer    *indexer.Indexer

	Session  *SessionUseCase
	Recall   *RecallUseCase
	Indexing *IndexingUseCase
}

type Option func(*UseCases)

// WithModels supplies the capability router for reasoning and embedding
func WithModels(models *modelsvc.Router) Option {
	return func(uc *UseCases) {
		uc.models = models
	}
}

// WithRegistry supplies a pre-populated domain module registry
func WithRegistry(registry *retrieval.Registry) Option {
	return func(uc *UseCases) {
		uc.registry = registry
	}
}

// WithIndexing enables the local indexing use case
func WithIndexing(gateway interfaces.FileGateway, idx *indexer.Indexer) Option {
	return func(uc *UseCases) {
		uc.gateway = gateway
		uc.indexer = idx
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		classifier: classifier.New(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.models == nil {
		uc.models = modelsvc.NewRouter(modelsvc.NewLocalEmbedder())
	}
	if uc.registry == nil {
		uc.registry = retrieval.NewRegistry()
	}
	uc.retrieval = retrieval.New(repo, uc.registry)

	uc.Session = NewSessionUseCase(repo, uc.classifier, uc.retrieval, uc.models)
	uc.Recall = NewRecallUseCase(repo)
	if uc.gateway != nil && uc.indexer != nil {
		uc.Indexing = NewIndexingUseCase(repo, uc.gateway, uc.indexer, uc.models)
	}

	return uc
}

// Domains returns the registered domain names, sorted
func (uc *UseCases) Domains() []string {
	return uc.registry.Domains()
}

// Retrieval exposes the fusion engine for read-only callers
func (uc *UseCases) Retrieval() *retrieval.Service {
	return uc.retrieval
}
