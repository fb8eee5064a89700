package retrieval_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/repository/memory"
	"github.com/mentor-lab/chiron/pkg/service/retrieval"
)

func carRepairModule() *model.DomainModule {
	return &model.DomainModule{
		Domain: "car_repair",
		DiagnosticTree: &model.TreeNode{
			ID: "root",
			Question: &model.Question{
				ID:       "q-start",
				Text:     "Does the engine turn over at all?",
				Priority: types.PrioritySecondary,
				Narrows:  []types.ProblemType{types.ProblemBrokenFeature},
			},
			Branches: map[model.TreeBranch]*model.TreeNode{
				model.BranchYes: {
					ID: "turns-over",
					Question: &model.Question{
						ID:       "q-noise",
						Text:     "Do you hear a clicking noise?",
						Priority: types.PriorityPrimary,
						Narrows:  []types.ProblemType{types.ProblemBrokenFeature},
					},
					Branches: map[model.TreeBranch]*model.TreeNode{
						model.BranchYes: {
							ID: "clicking",
							Framing: &model.ProblemFrame{
								PrimaryType: types.ProblemBrokenFeature,
								RootCause:   types.RootCauseLogicFault,
								Reasoning:   "clicking with no start points at the starter circuit",
								Confidence:  0.7,
							},
						},
					},
				},
				model.BranchNo: {
					ID: "dead",
					Question: &model.Question{
						ID:       "q-compression",
						Text:     "What does a compression test read?",
						Priority: types.PriorityFollowUp,
						MinSkill: types.SkillAdvanced,
					},
					Branches: map[model.TreeBranch]*model.TreeNode{
						model.BranchYes: {
							ID: "battery-dead",
							Framing: &model.ProblemFrame{
								PrimaryType: types.ProblemCrashError,
								RootCause:   types.RootCauseErrorHandling,
								Reasoning:   "fully dead electrics point at battery or ground",
								Confidence:  0.6,
							},
						},
					},
				},
			},
		},
		ProblemTypes: []model.ProblemTypeDef{
			{
				Type:       types.ProblemBrokenFeature,
				Indicators: []types.Indicator{types.IndicatorBrokenFunction},
				RootCause:  types.RootCauseLogicFault,
				SolutionPatterns: []string{
					"check battery terminals",
					"test the starter relay",
					"inspect the ignition switch",
				},
			},
		},
		Standards:      []string{"always disconnect the battery before touching the starter"},
		CommonPitfalls: []string{"replacing the starter before checking the ground strap"},
	}
}

func newService(t *testing.T) *retrieval.Service {
	t.Helper()
	registry := retrieval.NewRegistry()
	gt.NoError(t, registry.Register(carRepairModule())).Required()
	return retrieval.New(memory.New(), registry)
}

func TestRegistry(t *testing.T) {
	registry := retrieval.NewRegistry()

	t.Run("rejects invalid modules", func(t *testing.T) {
		gt.Error(t, registry.Register(&model.DomainModule{}))
	})

	t.Run("unregistered domain yields empty module", func(t *testing.T) {
		module := registry.Get("plumbing")
		gt.Value(t, module.Domain).Equal("plumbing")
		gt.Bool(t, module.IsEmpty()).True()
	})

	t.Run("registered domains are listed sorted", func(t *testing.T) {
		gt.NoError(t, registry.Register(carRepairModule())).Required()
		gt.NoError(t, registry.Register(&model.DomainModule{Domain: "bicycle"})).Required()

		domains := registry.Domains()
		gt.Array(t, domains).Length(2)
		gt.Value(t, domains[0]).Equal("bicycle")
		gt.Value(t, domains[1]).Equal("car_repair")
	})
}

func TestBackwardContext(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	t.Run("unknown user gets the default profile", func(t *testing.T) {
		profile, err := svc.BackwardContext(ctx, "nobody", retrieval.BackwardOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, profile.UserID).Equal("nobody")
		gt.Value(t, profile.LearningStyle).Equal(types.LearningConceptual)
		gt.Value(t, profile.RiskTolerance).Equal(types.RiskMedium)
	})

	t.Run("options filter past problems", func(t *testing.T) {
		now := time.Now().UTC()
		for _, snap := range []model.ProblemSnapshot{
			{SessionID: model.NewSessionID(), Domain: "car_repair", ProblemType: types.ProblemBrokenFeature, OccurredAt: now},
			{SessionID: model.NewSessionID(), Domain: "plumbing", ProblemType: types.ProblemBrokenFeature, OccurredAt: now},
			{SessionID: model.NewSessionID(), Domain: "car_repair", ProblemType: types.ProblemPerformance, OccurredAt: now.AddDate(0, 0, -90)},
		} {
			gt.NoError(t, svc.RecordProblemSnapshot(ctx, "driver", snap)).Required()
		}

		profile, err := svc.BackwardContext(ctx, "driver", retrieval.BackwardOptions{
			RelatedDomains: []string{"car_repair"},
			MaxRecencyDays: 30,
		})
		gt.NoError(t, err).Required()
		gt.Array(t, profile.PastProblems).Length(1)
		gt.Value(t, profile.PastProblems[0].Domain).Equal("car_repair")
	})
}

func TestSimilarPastProblems(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	older := model.ProblemSnapshot{
		SessionID:    model.NewSessionID(),
		Domain:       "car_repair",
		ProblemType:  types.ProblemBrokenFeature,
		SolutionPath: []string{"cleaned terminals"},
		Resolved:     true,
		OccurredAt:   now.Add(-48 * time.Hour),
	}
	newer := model.ProblemSnapshot{
		SessionID:    model.NewSessionID(),
		Domain:       "car_repair",
		ProblemType:  types.ProblemBrokenFeature,
		SolutionPath: []string{"replaced relay"},
		Resolved:     true,
		OccurredAt:   now,
	}
	other := model.ProblemSnapshot{
		SessionID:   model.NewSessionID(),
		Domain:      "car_repair",
		ProblemType: types.ProblemPerformance,
		OccurredAt:  now,
	}
	for _, snap := range []model.ProblemSnapshot{older, newer, other} {
		gt.NoError(t, svc.RecordProblemSnapshot(ctx, "driver", snap)).Required()
	}

	similar, err := svc.SimilarPastProblems(ctx, "driver", "car_repair", types.ProblemBrokenFeature)
	gt.NoError(t, err).Required()
	gt.Array(t, similar).Length(2)
	gt.Value(t, similar[0].SessionID).Equal(newer.SessionID)
	gt.Value(t, similar[1].SessionID).Equal(older.SessionID)
}

func TestCustomizedQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("caps at three and orders indicated first", func(t *testing.T) {
		svc := newService(t)
		questions, err := svc.CustomizedQuestions(ctx, "driver", "car_repair",
			[]types.Indicator{types.IndicatorBrokenFunction})
		gt.NoError(t, err).Required()

		// Beginner skill hides the advanced compression question; the
		// remaining two both narrow the indicated type, primary first.
		gt.Array(t, questions).Length(2)
		gt.Value(t, questions[0].ID).Equal("q-noise")
		gt.Value(t, questions[1].ID).Equal("q-start")
	})

	t.Run("skilled users see advanced questions", func(t *testing.T) {
		svc := newService(t)
		profile := model.NewProfile("mechanic")
		profile.SkillLevels["car_repair"] = types.SkillExpert
		repo := memory.New()
		gt.NoError(t, repo.Profile().Put(ctx, profile)).Required()

		registry := retrieval.NewRegistry()
		gt.NoError(t, registry.Register(carRepairModule())).Required()
		svc = retrieval.New(repo, registry)

		questions, err := svc.CustomizedQuestions(ctx, "mechanic", "car_repair", nil)
		gt.NoError(t, err).Required()
		gt.Array(t, questions).Length(3)
	})

	t.Run("hands-on learners see option questions first", func(t *testing.T) {
		module := &model.DomainModule{
			Domain: "car_repair",
			DiagnosticTree: &model.TreeNode{
				ID: "root",
				Question: &model.Question{
					ID:       "q-open",
					Text:     "Describe what the engine does when you turn the key",
					Priority: types.PrioritySecondary,
				},
				Branches: map[model.TreeBranch]*model.TreeNode{
					model.BranchYes: {
						ID: "next",
						Question: &model.Question{
							ID:            "q-options",
							Text:          "Turn the headlights on. Are they bright, dim, or dead?",
							Priority:      types.PrioritySecondary,
							AnswerOptions: []string{"bright", "dim", "dead"},
						},
					},
				},
			},
		}
		registry := retrieval.NewRegistry()
		gt.NoError(t, registry.Register(module)).Required()

		repo := memory.New()
		tinkerer := model.NewProfile("tinkerer")
		tinkerer.LearningStyle = types.LearningHandsOn
		gt.NoError(t, repo.Profile().Put(ctx, tinkerer)).Required()
		svc := retrieval.New(repo, registry)

		questions, err := svc.CustomizedQuestions(ctx, "tinkerer", "car_repair", nil)
		gt.NoError(t, err).Required()
		gt.Array(t, questions).Length(2)
		gt.Value(t, questions[0].ID).Equal("q-options")
		gt.Value(t, questions[1].ID).Equal("q-open")

		// The default conceptual style keeps the tree order.
		reader, err := svc.CustomizedQuestions(ctx, "reader", "car_repair", nil)
		gt.NoError(t, err).Required()
		gt.Array(t, reader).Length(2)
		gt.Value(t, reader[0].ID).Equal("q-open")
	})

	t.Run("unregistered domain yields no questions", func(t *testing.T) {
		svc := newService(t)
		questions, err := svc.CustomizedQuestions(ctx, "driver", "plumbing", nil)
		gt.NoError(t, err).Required()
		gt.Array(t, questions).Length(0)
	})
}

func TestRecommendedNextSteps(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers the user's own successful path", func(t *testing.T) {
		svc := newService(t)
		gt.NoError(t, svc.RecordProblemSnapshot(ctx, "driver", model.ProblemSnapshot{
			SessionID:    model.NewSessionID(),
			Domain:       "car_repair",
			ProblemType:  types.ProblemBrokenFeature,
			SolutionPath: []string{"cleaned terminals", "tightened ground strap"},
			Resolved:     true,
			OccurredAt:   time.Now().UTC(),
		})).Required()

		steps, err := svc.RecommendedNextSteps(ctx, "driver", "car_repair", types.ProblemBrokenFeature)
		gt.NoError(t, err).Required()
		gt.Array(t, steps.SuccessPath).Length(2)
		gt.Array(t, steps.RecommendedPath).Length(3)
		gt.Value(t, steps.Preferred()[0]).Equal("cleaned terminals")
	})

	t.Run("falls back to the domain pattern without history", func(t *testing.T) {
		svc := newService(t)
		steps, err := svc.RecommendedNextSteps(ctx, "stranger", "car_repair", types.ProblemBrokenFeature)
		gt.NoError(t, err).Required()
		gt.Array(t, steps.SuccessPath).Length(0)
		gt.Value(t, steps.Preferred()[0]).Equal("check battery terminals")
	})

	t.Run("unresolved history is not a success path", func(t *testing.T) {
		svc := newService(t)
		gt.NoError(t, svc.RecordProblemSnapshot(ctx, "driver", model.ProblemSnapshot{
			SessionID:    model.NewSessionID(),
			Domain:       "car_repair",
			ProblemType:  types.ProblemBrokenFeature,
			SolutionPath: []string{"kept cranking until the battery died"},
			Resolved:     false,
			OccurredAt:   time.Now().UTC(),
		})).Required()

		steps, err := svc.RecommendedNextSteps(ctx, "driver", "car_repair", types.ProblemBrokenFeature)
		gt.NoError(t, err).Required()
		gt.Array(t, steps.SuccessPath).Length(0)
	})
}
