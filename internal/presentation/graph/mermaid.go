// Package graph renders compiled workflows as Mermaid flowcharts.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
)

// Overlay contains dynamic state data to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces Mermaid flowchart syntax for a compiled graph.
// Node shapes follow kind semantics:
//   - entry: ((circle))
//   - tool, mcp, code: [[subroutine]]
//   - branch: {diamond}
//   - judge: {{hexagon}}
//   - default: [rectangle]
//
// Conditional edges carry their condition text as a label; stop nodes get
// a direct arrow to END.
func GenerateMermaid(g *runtime.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := g.NodeIDs()
	sort.Strings(ids)

	for _, id := range ids {
		safeID := sanitizeID(id)

		opener, closer := "[", "]"
		switch {
		case id == g.Entry():
			opener, closer = "((", "))"
		case g.NodeKind(id) == domain.KindTool,
			g.NodeKind(id) == domain.KindMCP,
			g.NodeKind(id) == domain.KindCode:
			opener, closer = "[[", "]]"
		case g.NodeKind(id) == domain.KindBranch:
			opener, closer = "{", "}"
		case g.NodeKind(id) == domain.KindJudge:
			opener, closer = "{{", "}}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, id, closer))
	}
	sb.WriteString(fmt.Sprintf("    %s((\"END\"))\n", sanitizeID(domain.EndNode)))

	for _, id := range ids {
		safeID := sanitizeID(id)

		if g.IsStop(id) {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeID(domain.EndNode)))
			continue
		}

		if router := g.Router(id); router != nil {
			for _, rule := range router.Rules {
				target := rule.Target
				if rule.CompileErr == nil && rule.Cond.IsTarget() {
					target = rule.Cond.Target()
				}
				label := strings.ReplaceAll(rule.Expr, "\"", "'")
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeID(target)))
			}
			fallback := router.Default
			if fallback == "" {
				fallback = domain.EndNode
			}
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeID(fallback)))
			continue
		}

		targets := g.DirectEdges(id)
		if len(targets) == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeID(domain.EndNode)))
			continue
		}
		for _, target := range targets {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeID(target)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
