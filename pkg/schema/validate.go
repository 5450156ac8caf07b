package schema

import (
	"fmt"

	"github.com/aretw0/plait/pkg/domain"
)

// validateSpec runs cross-reference validation on a normalized spec:
// node -> llm, node -> function, edge endpoints, output-step existence,
// and the exactly-one-capability invariant per executable node.
func validateSpec(spec *domain.Specification) ValidationErrors {
	var errs ValidationErrors

	if len(spec.Workflow.Nodes) == 0 {
		errs = append(errs, &ValidationError{Field: "workflow.nodes", Reason: "at least one node is required"})
		return errs
	}

	nodeIDs := make(map[string]bool, len(spec.Workflow.Nodes))
	for _, n := range spec.Workflow.Nodes {
		if n.ID == "" {
			errs = append(errs, &ValidationError{Field: "workflow.nodes", Reason: "node missing id"})
			continue
		}
		if nodeIDs[n.ID] {
			errs = append(errs, &ValidationError{Node: n.ID, Reason: "duplicate node id"})
		}
		nodeIDs[n.ID] = true
		errs = append(errs, validateNode(spec, n)...)
	}

	for _, e := range spec.Workflow.Edges {
		label := e.Source + "->" + e.Target
		if !nodeIDs[e.Source] {
			errs = append(errs, &ValidationError{Edge: label, Reason: fmt.Sprintf("source %q is not a declared node", e.Source)})
		}
		if e.Target != domain.EndNode && !nodeIDs[e.Target] {
			errs = append(errs, &ValidationError{Edge: label, Reason: fmt.Sprintf("target %q is not a declared node", e.Target)})
		}
	}

	if out := spec.Workflow.Output; out != "" && !nodeIDs[out] {
		errs = append(errs, &ValidationError{Field: "workflow.output", Reason: fmt.Sprintf("output step %q is not a declared node", out)})
	}

	return errs
}

func validateNode(spec *domain.Specification, n domain.Node) ValidationErrors {
	var errs ValidationErrors

	// Exactly one capability binding per executable unit.
	capabilities := 0
	if n.Ref != "" {
		capabilities++
	}
	if _, ok := n.Config["workflow"]; ok {
		capabilities++
	}

	switch n.Kind {
	case domain.KindAgent, domain.KindJudge:
		if capabilities != 1 {
			errs = append(errs, &ValidationError{Node: n.ID, Reason: "exactly one of llm ref or sub-workflow path must be set"})
			break
		}
		if n.Ref != "" {
			if _, ok := spec.LLMs[n.Ref]; !ok {
				errs = append(errs, &ValidationError{Node: n.ID, Reason: fmt.Sprintf("llm ref %q does not resolve", n.Ref)})
			}
		}
	case domain.KindTool:
		if capabilities != 1 {
			errs = append(errs, &ValidationError{Node: n.ID, Reason: "exactly one of function ref or sub-workflow path must be set"})
			break
		}
		if n.Ref != "" {
			if _, ok := spec.Functions[n.Ref]; !ok {
				errs = append(errs, &ValidationError{Node: n.ID, Reason: fmt.Sprintf("function ref %q does not resolve", n.Ref)})
			}
		}
	case domain.KindMCP:
		// Server and tool subkeys are a parse-time requirement, not an
		// execution-time surprise.
		if _, ok := configMap(n.Config, "server"); !ok {
			errs = append(errs, &ValidationError{Node: n.ID, Reason: "mcp node requires config.server"})
		}
		if s, ok := n.Config["tool"].(string); !ok || s == "" {
			errs = append(errs, &ValidationError{Node: n.ID, Reason: "mcp node requires config.tool"})
		}
	case domain.KindBranch, domain.KindCode:
		// No binding requirements.
	case "":
		errs = append(errs, &ValidationError{Node: n.ID, Reason: "node missing kind"})
	default:
		errs = append(errs, &ValidationError{Node: n.ID, Reason: fmt.Sprintf("unknown node kind %q", n.Kind)})
	}

	return errs
}

func configMap(config map[string]any, key string) (map[string]any, bool) {
	v, ok := config[key]
	if !ok {
		return nil, false
	}
	return normalizeMap(v)
}
