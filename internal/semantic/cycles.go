package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/dag"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// detectCycles is pass 5: workflow step depends_on graphs must be
// acyclic, per spec.md §4.4 pass 5. Cycles are reported per workflow
// since depends_on names are scoped to sibling steps within one
// workflow, not globally.
func detectCycles(tree *ast.HelixAst) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	for _, d := range tree.Declarations {
		if d.Kind != ast.DeclWorkflow {
			continue
		}
		diags = append(diags, detectWorkflowCycle(tree.Header.FileID, d)...)
	}
	return diags
}

func detectWorkflowCycle(fileID string, workflow *ast.Declaration) hlxerr.Diagnostics {
	steps, ok := workflow.Get("step")
	if !ok {
		return nil
	}
	stepObjs := asObjectList(steps)
	g := dag.New()
	for _, s := range stepObjs {
		name, _ := literalString(mustGet(s, "__name"))
		g.AddNode(name)
	}
	for _, s := range stepObjs {
		name, _ := literalString(mustGet(s, "__name"))
		deps, ok := s.Get("depends_on")
		if !ok {
			continue
		}
		arr, ok := deps.(*ast.ArrayLit)
		if !ok {
			continue
		}
		for _, el := range arr.Elements {
			depName, ok := literalString(el)
			if !ok {
				continue
			}
			// AddEdge(from, to) records "to depends on from"; edge
			// direction errors (unknown node, self-reference) were
			// already surfaced by resolveReferences in pass 2, so they
			// are silently skipped here rather than reported twice.
			_ = g.AddEdge(depName, name)
		}
	}
	if err := g.DetectCycles(); err != nil {
		return hlxerr.Diagnostics{hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticCycle,
			rangeOf(fileID, workflow.NameLoc),
			"workflow %q has a cyclic step dependency: %s", workflow.Name, err.Error())}
	}
	return nil
}
