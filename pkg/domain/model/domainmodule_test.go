package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

func carRepairTree() *model.TreeNode {
	return &model.TreeNode{
		ID:       "root",
		Question: &model.Question{ID: "q-root", Text: "Does the engine turn over?", Priority: types.PriorityPrimary},
		Branches: map[model.TreeBranch]*model.TreeNode{
			model.BranchYes: {
				ID:       "fuel",
				Question: &model.Question{ID: "q-fuel", Text: "Is there fuel in the tank?", Priority: types.PrioritySecondary},
				Branches: map[model.TreeBranch]*model.TreeNode{
					model.BranchYes: {
						ID:      "fuel-system",
						Framing: &model.ProblemFrame{PrimaryType: "fuel_delivery", RootCause: types.RootCauseUnknown, Confidence: 0.6},
					},
				},
			},
			model.BranchNo: {
				ID:      "electrical",
				Framing: &model.ProblemFrame{PrimaryType: "electrical", RootCause: types.RootCauseUnknown, Confidence: 0.7},
			},
		},
	}
}

func TestTreeNode_Questions(t *testing.T) {
	tree := carRepairTree()
	questions := tree.Questions()

	gt.Number(t, len(questions)).Equal(2)
	// Traversal is deterministic: root first, then yes-branch before no-branch
	gt.Value(t, questions[0].ID).Equal("q-root")
	gt.Value(t, questions[1].ID).Equal("q-fuel")
}

func TestDomainModule_Validate(t *testing.T) {
	t.Run("valid module", func(t *testing.T) {
		m := &model.DomainModule{
			Domain:         "car_repair",
			DiagnosticTree: carRepairTree(),
			ProblemTypes: []model.ProblemTypeDef{
				{Type: "fuel_delivery", RootCause: types.RootCauseUnknown},
			},
		}
		gt.NoError(t, m.Validate())
	})

	t.Run("missing domain name fails", func(t *testing.T) {
		m := &model.DomainModule{}
		gt.Error(t, m.Validate())
	})

	t.Run("duplicate problem type fails", func(t *testing.T) {
		m := &model.DomainModule{
			Domain: "coding",
			ProblemTypes: []model.ProblemTypeDef{
				{Type: "crash_error"},
				{Type: "crash_error"},
			},
		}
		gt.Error(t, m.Validate())
	})

	t.Run("bare leaf fails", func(t *testing.T) {
		m := &model.DomainModule{
			Domain:         "coding",
			DiagnosticTree: &model.TreeNode{ID: "root"},
		}
		gt.Error(t, m.Validate())
	})
}

func TestEmptyDomainModule(t *testing.T) {
	m := model.EmptyDomainModule("gardening")
	gt.B(t, m.IsEmpty()).True()
	gt.Value(t, m.Domain).Equal("gardening")

	_, found := m.TypeDef(types.ProblemUnknown)
	gt.B(t, found).False()
}
