package types

// PatchType classifies a recall ledger entry.
// The type determines the fixed relevance weight used by recall search.
type PatchType string

const (
	PatchConcept    PatchType = "concept"
	PatchArtifact   PatchType = "artifact"
	PatchPreference PatchType = "preference"
	PatchFact       PatchType = "fact"
	PatchSystemLog  PatchType = "system_log"
)

// AllPatchTypes returns all valid patch types
func AllPatchTypes() []PatchType {
	return []PatchType{
		PatchConcept,
		PatchArtifact,
		PatchPreference,
		PatchFact,
		PatchSystemLog,
	}
}

// IsValid checks if the patch type is valid
func (p PatchType) IsValid() bool {
	switch p {
	case PatchConcept, PatchArtifact, PatchPreference, PatchFact, PatchSystemLog:
		return true
	default:
		return false
	}
}

// Weight returns the fixed relevance weight of the patch type.
// User preferences rank highest, stable concepts next, then reusable
// artifacts, then general facts. Anything else scores zero.
func (p PatchType) Weight() int {
	switch p {
	case PatchPreference:
		return 25
	case PatchConcept:
		return 15
	case PatchArtifact:
		return 10
	case PatchFact:
		return 5
	default:
		return 0
	}
}

// String returns the string representation of the patch type
func (p PatchType) String() string {
	return string(p)
}
