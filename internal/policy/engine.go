package policy

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"gopkg.in/yaml.v3"
)

// Rule is a user-defined license policy rule loaded from YAML.
type Rule struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"` // CEL expression: "license == 'GPL-3.0' && source != 'workspace'"
	Action    string `yaml:"action"`    // "deny" or "warn"
}

// Dependency is one row of the dependency inventory evaluated against the
// rule set.
type Dependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	License string `yaml:"license"`
	Source  string `yaml:"source"`
}

// Violation is returned when a deny rule matches a dependency. It is fatal
// to the release gate; attribution must never be generated for a dependency
// set that already violates license policy.
type Violation struct {
	Dependency string
	RuleID     string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("dependency %s violates license policy rule %s", v.Dependency, v.RuleID)
}

// Engine manages the compilation and execution of policy rules.
type Engine struct {
	env      *cel.Env
	programs map[string]cel.Program
	actions  map[string]string
}

// NewEngine initializes the CEL environment with the supported variable
// declarations.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("name", decls.String),
			decls.NewVar("version", decls.String),
			decls.NewVar("license", decls.String),
			decls.NewVar("source", decls.String),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &Engine{
		env:      env,
		programs: make(map[string]cel.Program),
		actions:  make(map[string]string),
	}, nil
}

// Compile compiles a list of rules into executable programs.
func (e *Engine) Compile(rules []Rule) error {
	for _, r := range rules {
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		e.programs[r.ID] = prg
		e.actions[r.ID] = r.Action
	}
	return nil
}

// Check evaluates every rule against every dependency. The first deny match
// is returned as a *Violation; warn matches are logged and do not fail the
// gate. Rules are checked in sorted ID order for deterministic reporting.
func (e *Engine) Check(deps []Dependency, logger *slog.Logger) error {
	ids := make([]string, 0, len(e.programs))
	for id := range e.programs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, dep := range deps {
		vars := map[string]interface{}{
			"name":    dep.Name,
			"version": dep.Version,
			"license": dep.License,
			"source":  dep.Source,
		}
		for _, id := range ids {
			out, _, err := e.programs[id].Eval(vars)
			if err != nil {
				return fmt.Errorf("rule %s evaluation failed for %s: %w", id, dep.Name, err)
			}
			match, ok := out.Value().(bool)
			if !ok || !match {
				continue
			}
			if e.actions[id] == "deny" {
				return &Violation{Dependency: dep.Name, RuleID: id}
			}
			if logger != nil {
				logger.Warn("license policy warning", "rule", id, "dependency", dep.Name, "license", dep.License)
			}
		}
	}
	return nil
}

// LoadRules reads a YAML rules file: `rules: [{id, condition, action}, ...]`.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy rules: %w", err)
	}
	var f struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy rules %s: %w", path, err)
	}
	return f.Rules, nil
}

// LoadInventory reads a YAML dependency inventory:
// `dependencies: [{name, version, license, source}, ...]`.
func LoadInventory(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency inventory: %w", err)
	}
	var f struct {
		Dependencies []Dependency `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dependency inventory %s: %w", path, err)
	}
	return f.Dependencies, nil
}
