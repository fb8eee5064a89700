package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

func TestPatchType_Weight(t *testing.T) {
	tests := []struct {
		name  string
		patch types.PatchType
		want  int
	}{
		{name: "preference ranks highest", patch: types.PatchPreference, want: 25},
		{name: "concept", patch: types.PatchConcept, want: 15},
		{name: "artifact", patch: types.PatchArtifact, want: 10},
		{name: "fact", patch: types.PatchFact, want: 5},
		{name: "system log scores zero", patch: types.PatchSystemLog, want: 0},
		{name: "unknown scores zero", patch: types.PatchType("misc"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Number(t, tt.patch.Weight()).Equal(tt.want)
		})
	}
}

func TestSkillLevel_AtLeast(t *testing.T) {
	t.Run("expert is at least everything", func(t *testing.T) {
		for _, level := range types.AllSkillLevels() {
			gt.B(t, types.SkillExpert.AtLeast(level)).True()
		}
	})

	t.Run("beginner is below intermediate", func(t *testing.T) {
		gt.B(t, types.SkillBeginner.AtLeast(types.SkillIntermediate)).False()
	})

	t.Run("unknown level ranks as beginner", func(t *testing.T) {
		gt.Number(t, types.SkillLevel("wizard").Rank()).Equal(0)
	})
}

func TestSeverity_IsValid(t *testing.T) {
	for _, s := range types.AllSeverities() {
		gt.B(t, s.IsValid()).True()
	}
	gt.B(t, types.Severity("critical").IsValid()).False()
}

func TestConstraintType_IsValid(t *testing.T) {
	for _, c := range types.AllConstraintTypes() {
		gt.B(t, c.IsValid()).True()
	}
	gt.B(t, types.ConstraintType("money").IsValid()).False()
}

func TestRelationship_Parse(t *testing.T) {
	t.Run("all relationships are valid", func(t *testing.T) {
		for _, r := range types.AllRelationships() {
			gt.B(t, r.IsValid()).True()
		}
	})

	t.Run("parse invalid relationship", func(t *testing.T) {
		_, err := types.ParseRelationship("linked")
		gt.Error(t, err)
	})
}

func TestActionType_IsValid(t *testing.T) {
	for _, a := range types.AllActionTypes() {
		gt.B(t, a.IsValid()).True()
	}
	gt.B(t, types.ActionType("retry").IsValid()).False()
}
