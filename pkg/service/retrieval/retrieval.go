package retrieval

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/repository/firestore"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
	"golang.org/x/sync/errgroup"
)

// Service is the retrieval fusion engine. The backward direction reads
// user history, the forward direction reads domain knowledge, and the
// intersection operations always query both concurrently and fuse only
// after both resolve.
type Service struct {
	repo     interfaces.Repository
	registry *Registry
}

func New(repo interfaces.Repository, registry *Registry) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
	}
}

// Registry exposes the domain module registry
func (s *Service) Registry() *Registry {
	return s.registry
}

// BackwardOptions narrows the backward context
type BackwardOptions struct {
	RelatedDomains []string
	MaxRecencyDays int // 0 means unlimited
}

// BackwardContext returns the user's diagnostic profile. An unknown user
// gets the neutral default profile rather than an error; first-time users
// are the common case, not a failure.
func (s *Service) BackwardContext(ctx context.Context, userID string, opts BackwardOptions) (*model.Profile, error) {
	profile, err := s.repo.Profile().Get(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return model.NewProfile(userID), nil
		}
		return nil, err
	}

	if len(opts.RelatedDomains) > 0 || opts.MaxRecencyDays > 0 {
		profile.PastProblems = filterSnapshots(profile.PastProblems, opts)
	}

	return profile, nil
}

func filterSnapshots(snapshots []model.ProblemSnapshot, opts BackwardOptions) []model.ProblemSnapshot {
	domains := make(map[string]bool, len(opts.RelatedDomains))
	for _, d := range opts.RelatedDomains {
		domains[d] = true
	}

	var cutoff time.Time
	if opts.MaxRecencyDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -opts.MaxRecencyDays)
	}

	var filtered []model.ProblemSnapshot
	for _, snap := range snapshots {
		if len(domains) > 0 && !domains[snap.Domain] {
			continue
		}
		if !cutoff.IsZero() && snap.OccurredAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, snap)
	}
	return filtered
}

// SimilarPastProblems returns the user's prior snapshots matching domain
// and problem type, most recent first.
func (s *Service) SimilarPastProblems(ctx context.Context, userID, domain string, problemType types.ProblemType) ([]model.ProblemSnapshot, error) {
	profile, err := s.BackwardContext(ctx, userID, BackwardOptions{})
	if err != nil {
		return nil, err
	}

	similar := profile.SimilarPastProblems(domain, problemType)
	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].OccurredAt.After(similar[j].OccurredAt)
	})
	return similar, nil
}

// RecordProblemSnapshot persists a snapshot for future backward retrieval
func (s *Service) RecordProblemSnapshot(ctx context.Context, userID string, snapshot model.ProblemSnapshot) error {
	return s.repo.Profile().AddSnapshot(ctx, userID, snapshot)
}

// ForwardContext returns the domain's diagnostic module. Unregistered
// domains yield the empty module.
func (s *Service) ForwardContext(ctx context.Context, domain string) *model.DomainModule {
	return s.registry.Get(domain)
}

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

// fuse runs the backward and forward fetches concurrently and joins them.
// The two directions have independent latency sources, so issuing them
// sequentially would serialize unrelated waits.
func (s *Service) fuse(ctx context.Context, userID, domain string) (*model.Profile, *model.DomainModule, error) {
	var (
		profile *model.Profile
		module  *model.DomainModule
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := s.BackwardContext(ctx, userID, BackwardOptions{RelatedDomains: []string{domain}})
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	eg.Go(func() error {
		module = s.ForwardContext(ctx, domain)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return profile, module, nil
}
