package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/types"
)

// TreeBranch names the answer branches of a diagnostic tree node
type TreeBranch string

const (
	BranchYes   TreeBranch = "yes"
	BranchNo    TreeBranch = "no"
	BranchMaybe TreeBranch = "maybe"
)

// TreeNode is one node of a domain's diagnostic decision tree. Interior
// nodes carry a question and branches; a leaf carries the frame reached
// when diagnosis bottoms out there.
type TreeNode struct {
	ID       string
	Question *Question
	Branches map[TreeBranch]*TreeNode
	Framing  *ProblemFrame // set on leaves
}

// IsLeaf reports whether the node terminates the tree
func (n *TreeNode) IsLeaf() bool {
	return len(n.Branches) == 0
}

// Walk visits every node of the subtree in depth-first order. Branches
// are visited yes, no, maybe so traversal order is deterministic.
func (n *TreeNode) Walk(visit func(*TreeNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, b := range []TreeBranch{BranchYes, BranchNo, BranchMaybe} {
		if child, ok := n.Branches[b]; ok {
			child.Walk(visit)
		}
	}
}

// Questions collects the questions of the subtree in traversal order
func (n *TreeNode) Questions() []Question {
	var questions []Question
	n.Walk(func(node *TreeNode) {
		if node.Question != nil {
			questions = append(questions, *node.Question)
		}
	})
	return questions
}

// ProblemTypeDef describes one problem type a domain knows how to diagnose
type ProblemTypeDef struct {
	Type             types.ProblemType
	Indicators       []types.Indicator
	RootCause        types.RootCause
	SolutionPatterns []string
}

// ExampleProblem is a worked example attached to a domain module
type ExampleProblem struct {
	Domain      string
	ProblemType types.ProblemType
	Description string
	Resolution  []string
}

// DomainModule is the forward-retrieval knowledge for one problem domain:
// a diagnostic tree, the catalogue of problem types, applicable standards,
// common pitfalls, and worked examples.
type DomainModule struct {
	Domain         string
	DiagnosticTree *TreeNode
	ProblemTypes   []ProblemTypeDef
	Standards      []string
	CommonPitfalls []string
	Examples       []ExampleProblem
}

// EmptyDomainModule returns the degenerate module used when a domain has
// no registration. The mentor loop degrades to generic behavior with it
// instead of failing.
func EmptyDomainModule(domain string) *DomainModule {
	return &DomainModule{Domain: domain}
}

// IsEmpty reports whether the module carries any domain knowledge
func (m *DomainModule) IsEmpty() bool {
	return m.DiagnosticTree == nil && len(m.ProblemTypes) == 0
}

// TypeDef returns the definition of a problem type, if the domain has one
func (m *DomainModule) TypeDef(p types.ProblemType) (ProblemTypeDef, bool) {
	for _, def := range m.ProblemTypes {
		if def.Type == p {
			return def, true
		}
	}
	return ProblemTypeDef{}, false
}

// Validate checks the module's structural invariants
func (m *DomainModule) Validate() error {
	if m.Domain == "" {
		return goerr.New("domain module requires a domain name")
	}

	seen := make(map[types.ProblemType]bool)
	for _, def := range m.ProblemTypes {
		if def.Type == "" {
			return goerr.New("problem type definition requires a type",
				goerr.V("domain", m.Domain))
		}
		if seen[def.Type] {
			return goerr.New("duplicate problem type",
				goerr.V("domain", m.Domain), goerr.V("type", def.Type))
		}
		seen[def.Type] = true
	}

	if m.DiagnosticTree != nil {
		var err error
		m.DiagnosticTree.Walk(func(n *TreeNode) {
			if err != nil {
				return
			}
			if n.IsLeaf() && n.Framing == nil && n.Question == nil {
				err = goerr.New("diagnostic tree leaf carries neither framing nor question",
					goerr.V("domain", m.Domain), goerr.V("node", n.ID))
			}
		})
		if err != nil {
			return err
		}
	}

	return nil
}
