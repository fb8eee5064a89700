package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for domain module validation
var (
	ErrModuleNotFound       = goerr.New("domain module file not found")
	ErrInvalidModule        = goerr.New("invalid domain module")
	ErrDuplicateDomain      = goerr.New("duplicate domain")
	ErrDuplicateProblemType = goerr.New("duplicate problem type")
	ErrDuplicateQuestionID  = goerr.New("duplicate question ID")
	ErrDuplicateNodeID      = goerr.New("duplicate tree node ID")
	ErrUnknownQuestionRef   = goerr.New("tree node references unknown question")
	ErrUnknownNodeRef       = goerr.New("tree branch references unknown node")
	ErrTreeCycle            = goerr.New("diagnostic tree contains a cycle")
)

// Context keys for error values
const (
	ModulePathKey  = "module_path"
	DomainKey      = "domain"
	QuestionIDKey  = "question_id"
	NodeIDKey      = "node_id"
	ProblemTypeKey = "problem_type"
)
