package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
	"github.com/mentor-lab/chiron/pkg/domain/types"
	"github.com/mentor-lab/chiron/pkg/service/retrieval"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// ModuleConfig is the TOML representation of one domain module file
type ModuleConfig struct {
	Domain         string              `toml:"domain"`
	Standards      []string            `toml:"standards"`
	CommonPitfalls []string            `toml:"common_pitfalls"`
	ProblemTypes   []ProblemTypeConfig `toml:"problem_type"`
	Questions      []QuestionConfig    `toml:"question"`
	Examples       []ExampleConfig     `toml:"example"`
	Tree           *TreeConfig         `toml:"tree"`
}

// ProblemTypeConfig describes one problem type entry
type ProblemTypeConfig struct {
	Type             string   `toml:"type"`
	RootCause        string   `toml:"root_cause"`
	Indicators       []string `toml:"indicators"`
	SolutionPatterns []string `toml:"solution_patterns"`
}

// QuestionConfig describes one diagnostic question entry
type QuestionConfig struct {
	ID            string   `toml:"id"`
	Text          string   `toml:"text"`
	Priority      string   `toml:"priority"`
	MinSkill      string   `toml:"min_skill"`
	AnswerOptions []string `toml:"answer_options"`
	Narrows       []string `toml:"narrows"`
}

// ExampleConfig describes one worked example entry
type ExampleConfig struct {
	ProblemType string   `toml:"problem_type"`
	Description string   `toml:"description"`
	Resolution  []string `toml:"resolution"`
}

// TreeConfig describes the diagnostic tree as a flat node list. Nodes
// reference questions and each other by ID so the file stays editable by
// hand.
type TreeConfig struct {
	Root  string           `toml:"root"`
	Nodes []TreeNodeConfig `toml:"node"`
}

// TreeNodeConfig describes one tree node entry
type TreeNodeConfig struct {
	ID       string            `toml:"id"`
	Question string            `toml:"question"`
	Branches map[string]string `toml:"branches"`
	Framing  *FramingConfig    `toml:"framing"`
}

// FramingConfig describes the frame attached to a tree leaf
type FramingConfig struct {
	PrimaryType string   `toml:"primary_type"`
	RootCause   string   `toml:"root_cause"`
	DomainRules []string `toml:"domain_rules"`
	Reasoning   string   `toml:"reasoning"`
	Confidence  float64  `toml:"confidence"`
}

// Validate checks the module configuration before it is turned into a
// domain module.
func (m *ModuleConfig) Validate() error {
	if m.Domain == "" {
		return goerr.Wrap(ErrInvalidModule, "domain is required")
	}

	seenTypes := make(map[string]bool)
	for _, pt := range m.ProblemTypes {
		if pt.Type == "" {
			return goerr.Wrap(ErrInvalidModule, "problem type requires a type",
				goerr.V(DomainKey, m.Domain))
		}
		if seenTypes[pt.Type] {
			return goerr.Wrap(ErrDuplicateProblemType, "problem type defined twice",
				goerr.V(DomainKey, m.Domain), goerr.V(ProblemTypeKey, pt.Type))
		}
		seenTypes[pt.Type] = true
	}

	seenQuestions := make(map[string]bool)
	for _, q := range m.Questions {
		if q.ID == "" || q.Text == "" {
			return goerr.Wrap(ErrInvalidModule, "question requires id and text",
				goerr.V(DomainKey, m.Domain), goerr.V(QuestionIDKey, q.ID))
		}
		if seenQuestions[q.ID] {
			return goerr.Wrap(ErrDuplicateQuestionID, "question defined twice",
				goerr.V(DomainKey, m.Domain), goerr.V(QuestionIDKey, q.ID))
		}
		seenQuestions[q.ID] = true

		if q.Priority != "" && !types.QuestionPriority(q.Priority).IsValid() {
			return goerr.Wrap(ErrInvalidModule, "invalid question priority",
				goerr.V(QuestionIDKey, q.ID), goerr.V("priority", q.Priority))
		}
		if q.MinSkill != "" && !types.SkillLevel(q.MinSkill).IsValid() {
			return goerr.Wrap(ErrInvalidModule, "invalid question min skill",
				goerr.V(QuestionIDKey, q.ID), goerr.V("min_skill", q.MinSkill))
		}
	}

	if m.Tree != nil {
		if err := m.Tree.validate(m.Domain, seenQuestions); err != nil {
			return err
		}
	}

	return nil
}

func (t *TreeConfig) validate(domain string, questions map[string]bool) error {
	if t.Root == "" {
		return goerr.Wrap(ErrInvalidModule, "tree requires a root node",
			goerr.V(DomainKey, domain))
	}

	nodes := make(map[string]TreeNodeConfig, len(t.Nodes))
	for _, n := range t.Nodes {
		if n.ID == "" {
			return goerr.Wrap(ErrInvalidModule, "tree node requires an id",
				goerr.V(DomainKey, domain))
		}
		if _, ok := nodes[n.ID]; ok {
			return goerr.Wrap(ErrDuplicateNodeID, "tree node defined twice",
				goerr.V(DomainKey, domain), goerr.V(NodeIDKey, n.ID))
		}
		nodes[n.ID] = n
	}

	if _, ok := nodes[t.Root]; !ok {
		return goerr.Wrap(ErrUnknownNodeRef, "root node is not defined",
			goerr.V(DomainKey, domain), goerr.V(NodeIDKey, t.Root))
	}

	for _, n := range t.Nodes {
		if n.Question != "" && !questions[n.Question] {
			return goerr.Wrap(ErrUnknownQuestionRef, "question is not defined",
				goerr.V(DomainKey, domain), goerr.V(NodeIDKey, n.ID),
				goerr.V(QuestionIDKey, n.Question))
		}
		for branch, target := range n.Branches {
			switch model.TreeBranch(branch) {
			case model.BranchYes, model.BranchNo, model.BranchMaybe:
			default:
				return goerr.Wrap(ErrInvalidModule, "invalid tree branch",
					goerr.V(NodeIDKey, n.ID), goerr.V("branch", branch))
			}
			if _, ok := nodes[target]; !ok {
				return goerr.Wrap(ErrUnknownNodeRef, "branch target is not defined",
					goerr.V(DomainKey, domain), goerr.V(NodeIDKey, n.ID),
					goerr.V("target", target))
			}
		}
	}

	return nil
}

// Module converts the validated configuration into a domain module
func (m *ModuleConfig) Module() (*model.DomainModule, error) {
	module := &model.DomainModule{
		Domain:         m.Domain,
		Standards:      m.Standards,
		CommonPitfalls: m.CommonPitfalls,
	}

	for _, pt := range m.ProblemTypes {
		def := model.ProblemTypeDef{
			Type:             types.ProblemType(pt.Type),
			RootCause:        types.RootCause(pt.RootCause),
			SolutionPatterns: pt.SolutionPatterns,
		}
		for _, ind := range pt.Indicators {
			def.Indicators = append(def.Indicators, types.Indicator(ind))
		}
		module.ProblemTypes = append(module.ProblemTypes, def)
	}

	for _, ex := range m.Examples {
		module.Examples = append(module.Examples, model.ExampleProblem{
			Domain:      m.Domain,
			ProblemType: types.ProblemType(ex.ProblemType),
			Description: ex.Description,
			Resolution:  ex.Resolution,
		})
	}

	if m.Tree != nil {
		root, err := m.Tree.build(m.questionIndex())
		if err != nil {
			return nil, err
		}
		module.DiagnosticTree = root
	}

	if err := module.Validate(); err != nil {
		return nil, goerr.Wrap(err, "module failed structural validation",
			goerr.V(DomainKey, m.Domain))
	}
	return module, nil
}

func (m *ModuleConfig) questionIndex() map[string]*model.Question {
	index := make(map[string]*model.Question, len(m.Questions))
	for _, q := range m.Questions {
		priority := types.QuestionPriority(q.Priority)
		if q.Priority == "" {
			priority = types.PrioritySecondary
		}
		minSkill := types.SkillLevel(q.MinSkill)
		if q.MinSkill == "" {
			minSkill = types.SkillBeginner
		}

		question := &model.Question{
			ID:            q.ID,
			Text:          q.Text,
			Priority:      priority,
			AnswerOptions: q.AnswerOptions,
			MinSkill:      minSkill,
		}
		for _, n := range q.Narrows {
			question.Narrows = append(question.Narrows, types.ProblemType(n))
		}
		index[q.ID] = question
	}
	return index
}

// build links the flat node list into a tree starting from the root.
// Node IDs may only be referenced once on any path, so a cycle in the
// branch references is reported instead of recursing forever.
func (t *TreeConfig) build(questions map[string]*model.Question) (*model.TreeNode, error) {
	nodes := make(map[string]TreeNodeConfig, len(t.Nodes))
	for _, n := range t.Nodes {
		nodes[n.ID] = n
	}

	var link func(id string, path map[string]bool) (*model.TreeNode, error)
	link = func(id string, path map[string]bool) (*model.TreeNode, error) {
		if path[id] {
			return nil, goerr.Wrap(ErrTreeCycle, "node is its own ancestor", goerr.V(NodeIDKey, id))
		}
		path[id] = true
		defer delete(path, id)

		cfg := nodes[id]
		node := &model.TreeNode{ID: cfg.ID}
		if cfg.Question != "" {
			node.Question = questions[cfg.Question]
		}
		if cfg.Framing != nil {
			node.Framing = &model.ProblemFrame{
				PrimaryType: types.ProblemType(cfg.Framing.PrimaryType),
				RootCause:   types.RootCause(cfg.Framing.RootCause),
				DomainRules: cfg.Framing.DomainRules,
				Reasoning:   cfg.Framing.Reasoning,
				Confidence:  cfg.Framing.Confidence,
			}
		}
		for branch, target := range cfg.Branches {
			child, err := link(target, path)
			if err != nil {
				return nil, err
			}
			if node.Branches == nil {
				node.Branches = make(map[model.TreeBranch]*model.TreeNode)
			}
			node.Branches[model.TreeBranch(branch)] = child
		}
		return node, nil
	}

	return link(t.Root, map[string]bool{})
}

// LoadModuleConfig reads and validates a single domain module file
func LoadModuleConfig(path string) (*ModuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrModuleNotFound, "no such file", goerr.V(ModulePathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read domain module file",
			goerr.V(ModulePathKey, path))
	}

	var cfg ModuleConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse domain module file",
			goerr.V(ModulePathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "domain module validation failed",
			goerr.V(ModulePathKey, path))
	}
	return &cfg, nil
}

// Modules holds CLI flags for domain module files
type Modules struct {
	paths []string
}

// Flags returns CLI flags for domain module configuration
func (m *Modules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "domain-module",
			Usage:       "Path to a domain module TOML file (repeatable)",
			Sources:     cli.EnvVars("CHIRON_DOMAIN_MODULES"),
			Destination: &m.paths,
		},
	}
}

// Paths returns the configured module file paths
func (m *Modules) Paths() []string {
	return m.paths
}

// Configure loads every configured module file and registers the modules.
// Module files are optional: with no paths the registry is empty and the
// mentor loop degrades to generic behavior.
func (m *Modules) Configure() ([]*ModuleConfig, *retrieval.Registry, error) {
	registry := retrieval.NewRegistry()
	configs := make([]*ModuleConfig, 0, len(m.paths))
	seen := make(map[string]string)

	for _, path := range m.paths {
		cfg, err := LoadModuleConfig(path)
		if err != nil {
			return nil, nil, err
		}
		if prev, ok := seen[cfg.Domain]; ok {
			return nil, nil, goerr.Wrap(ErrDuplicateDomain, "domain loaded twice",
				goerr.V(DomainKey, cfg.Domain),
				goerr.V(ModulePathKey, path),
				goerr.V("previous_path", prev))
		}
		seen[cfg.Domain] = path

		module, err := cfg.Module()
		if err != nil {
			return nil, nil, err
		}
		if err := registry.Register(module); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to register domain module",
				goerr.V(ModulePathKey, path))
		}
		configs = append(configs, cfg)
	}

	return configs, registry, nil
}
