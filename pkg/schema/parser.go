package schema

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Resolver loads the raw mapping of a referenced parent spec. fromPath is
// the resolved location of the file declaring the reference (empty for the
// root mapping), so relative paths resolve against the referencing file.
// It returns the mapping plus the resolved absolute path used for cycle
// detection.
type Resolver func(refPath, fromPath string) (raw map[string]any, absPath string, err error)

// Parser turns raw mappings into validated Specifications.
type Parser struct {
	resolver Resolver
	logger   *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithResolver enables parent-reference resolution.
func WithResolver(r Resolver) ParserOption {
	return func(p *Parser) { p.resolver = r }
}

// WithLogger sets a structured logger for merge diagnostics.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) { p.logger = logger }
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// rawSpec mirrors the YAML surface before validation.
type rawSpec struct {
	Name      string                 `mapstructure:"name"`
	Reference any                    `mapstructure:"reference"`
	LLMs      map[string]rawLLM      `mapstructure:"llms"`
	Functions map[string]rawFunction `mapstructure:"functions"`
	Workflow  rawWorkflow            `mapstructure:"workflow"`
}

type rawLLM struct {
	Provider    string         `mapstructure:"provider"`
	Model       string         `mapstructure:"model"`
	Temperature *float64       `mapstructure:"temperature"`
	Params      map[string]any `mapstructure:"params"`
	APIKey      string         `mapstructure:"api_key"`
	APIKeyEnv   string         `mapstructure:"api_key_env"`
}

type rawFunction struct {
	Kind       string `mapstructure:"kind"`
	Entrypoint string `mapstructure:"entrypoint"`
}

type rawWorkflow struct {
	Pattern       string    `mapstructure:"pattern"`
	Nodes         []rawNode `mapstructure:"nodes"`
	Edges         []rawEdge `mapstructure:"edges"`
	MaxIterations int       `mapstructure:"max_iterations"`
	Output        string    `mapstructure:"output"`
}

type rawNode struct {
	ID     string         `mapstructure:"id"`
	Kind   string         `mapstructure:"kind"`
	Ref    string         `mapstructure:"ref"`
	Config map[string]any `mapstructure:"config"`
	Stop   bool           `mapstructure:"stop"`
}

type rawEdge struct {
	Source    string `mapstructure:"source"`
	Target    string `mapstructure:"target"`
	Condition string `mapstructure:"condition"`
}

// Parse validates and normalizes a raw workflow mapping.
// Cross-reference validation runs only after any parent references are
// merged in, since a dangling ref may resolve in a parent.
func (p *Parser) Parse(raw map[string]any) (*domain.Specification, error) {
	resolved, err := p.resolveReferences(raw, "", map[string]bool{})
	if err != nil {
		return nil, err
	}

	var rs rawSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rs,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build spec decoder: %w", err)
	}
	if err := decoder.Decode(resolved); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed specification: %v", err)}
	}

	spec, errs := p.normalize(&rs)
	errs = append(errs, validateSpec(spec)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return spec, nil
}

// resolveReferences walks the reference chain depth-first, merging each
// parent underneath the current mapping (left base, right override).
// fromPath identifies the file that declared raw, so each level of the
// chain resolves its own relative references. A revisited absolute path
// mid-chain is a circular reference.
func (p *Parser) resolveReferences(raw map[string]any, fromPath string, visited map[string]bool) (map[string]any, error) {
	ref, ok := raw["reference"]
	if !ok || ref == nil {
		return raw, nil
	}

	var paths []string
	switch v := ref.(type) {
	case string:
		paths = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Field: "reference", Reason: fmt.Sprintf("expected string path, got %T", item)}
			}
			paths = append(paths, s)
		}
	case []string:
		paths = v
	default:
		return nil, &ValidationError{Field: "reference", Reason: fmt.Sprintf("expected string or list, got %T", v)}
	}

	if p.resolver == nil {
		return nil, &ValidationError{Field: "reference", Reason: "spec declares a reference but no resolver is configured"}
	}

	base := map[string]any{}
	for _, path := range paths {
		parentRaw, absPath, err := p.resolver(path, fromPath)
		if err != nil {
			return nil, fmt.Errorf("resolve reference %q: %w", path, err)
		}
		if visited[absPath] {
			return nil, fmt.Errorf("%w: %s revisited", ErrCircularReference, absPath)
		}
		visited[absPath] = true

		parent, err := p.resolveReferences(parentRaw, absPath, visited)
		if err != nil {
			return nil, err
		}
		delete(visited, absPath)

		base, err = deepMerge(base, parent, "")
		if err != nil {
			return nil, err
		}
		p.logger.Debug("merged spec reference", "path", path, "resolved", absPath)
	}

	child := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "reference" {
			continue
		}
		child[k] = v
	}
	return deepMerge(base, child, "")
}

// normalize converts the raw shape to domain types, applying schema-level
// (per-field) checks. Cross-reference checks live in validateSpec.
func (p *Parser) normalize(rs *rawSpec) (*domain.Specification, ValidationErrors) {
	var errs ValidationErrors

	spec := &domain.Specification{
		Name:      rs.Name,
		LLMs:      make(map[string]domain.LLMConfig, len(rs.LLMs)),
		Functions: make(map[string]domain.FunctionConfig, len(rs.Functions)),
	}

	for name, llm := range rs.LLMs {
		cfg := domain.LLMConfig{
			Provider: llm.Provider,
			Model:    llm.Model,
			Params:   llm.Params,
			APIKey:   llm.APIKey,
		}
		if llm.Temperature != nil {
			cfg.Temperature = *llm.Temperature
			if cfg.Temperature < 0 || cfg.Temperature > 1 {
				errs = append(errs, &ValidationError{
					Field:  "llms." + name + ".temperature",
					Reason: fmt.Sprintf("temperature %v outside [0,1]", cfg.Temperature),
				})
			}
		}
		if cfg.APIKey == "" && llm.APIKeyEnv != "" {
			cfg.APIKey = os.Getenv(llm.APIKeyEnv)
		}
		spec.LLMs[name] = cfg
	}

	for name, fn := range rs.Functions {
		kind := fn.Kind
		if kind == "" {
			kind = domain.FunctionCallable
		}
		if kind != domain.FunctionCallable && kind != domain.FunctionProtocol {
			errs = append(errs, &ValidationError{
				Field:  "functions." + name + ".kind",
				Reason: fmt.Sprintf("unknown function kind %q", kind),
			})
		}
		if fn.Entrypoint == "" {
			errs = append(errs, &ValidationError{
				Field:  "functions." + name + ".entrypoint",
				Reason: "entrypoint is required",
			})
		}
		spec.Functions[name] = domain.FunctionConfig{Kind: kind, Entrypoint: fn.Entrypoint}
	}

	pattern := rs.Workflow.Pattern
	if pattern == "" {
		pattern = domain.PatternSequential
	}
	switch pattern {
	case domain.PatternSequential, domain.PatternLoop, domain.PatternEvaluator, domain.PatternGraph:
	default:
		errs = append(errs, &ValidationError{
			Field:  "workflow.pattern",
			Reason: fmt.Sprintf("unknown pattern %q", pattern),
		})
	}
	if rs.Workflow.MaxIterations < 0 {
		errs = append(errs, &ValidationError{
			Field:  "workflow.max_iterations",
			Reason: "must be non-negative",
		})
	}

	spec.Workflow = domain.WorkflowConfig{
		Pattern:       pattern,
		MaxIterations: rs.Workflow.MaxIterations,
		Output:        rs.Workflow.Output,
	}
	for _, n := range rs.Workflow.Nodes {
		spec.Workflow.Nodes = append(spec.Workflow.Nodes, domain.Node{
			ID:     n.ID,
			Kind:   n.Kind,
			Ref:    n.Ref,
			Config: n.Config,
			Stop:   n.Stop,
		})
	}
	for _, e := range rs.Workflow.Edges {
		spec.Workflow.Edges = append(spec.Workflow.Edges, domain.Edge{
			Source:    e.Source,
			Target:    e.Target,
			Condition: e.Condition,
		})
	}

	return spec, errs
}

// Parse is a convenience for specs without parent references.
func Parse(raw map[string]any) (*domain.Specification, error) {
	return NewParser().Parse(raw)
}
