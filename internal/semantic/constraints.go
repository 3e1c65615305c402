package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// checkConstraints is pass 4: value-level range/shape constraints that
// go beyond a property's primitive type, per spec.md §4.4 pass 4.
func checkConstraints(tree *ast.HelixAst) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	for _, d := range tree.Declarations {
		switch d.Kind {
		case ast.DeclAgent:
			diags = append(diags, checkAgentConstraints(tree.Header.FileID, d)...)
		case ast.DeclWorkflow:
			diags = append(diags, checkWorkflowConstraints(tree.Header.FileID, d)...)
		case ast.DeclCrew:
			diags = append(diags, checkCrewConstraints(tree.Header.FileID, d)...)
		}
	}
	return diags
}

func checkAgentConstraints(fileID string, d *ast.Declaration) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	if v, ok := d.Get("temperature"); ok {
		if n, ok := v.(*ast.NumberLit); ok && (n.Value < 0.0 || n.Value > 2.0) {
			diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
				rangeOf(fileID, n.Loc()), "agent %q temperature %.2f out of range [0.0, 2.0]", d.Name, n.Value))
		}
	}
	if v, ok := d.Get("max_tokens"); ok {
		if n, ok := v.(*ast.NumberLit); ok && n.Value <= 0 {
			diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
				rangeOf(fileID, n.Loc()), "agent %q max_tokens must be > 0", d.Name))
		}
	}
	return diags
}

func checkWorkflowConstraints(fileID string, d *ast.Declaration) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	if v, ok := d.Get("timeout"); ok {
		if _, ok := v.(*ast.DurationLit); !ok && !isDeferred(v) {
			diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
				rangeOf(fileID, v.Loc()), "workflow %q timeout must be a duration (e.g. 30m)", d.Name))
		}
	}
	steps, ok := d.Get("step")
	if !ok {
		return diags
	}
	for _, s := range asObjectList(steps) {
		retryVal, ok := s.Get("retry")
		if !ok {
			continue
		}
		retryObj, ok := retryVal.(*ast.ObjectLit)
		if !ok {
			continue
		}
		maxAttempts, ok := retryObj.Get("max_attempts")
		if !ok {
			continue
		}
		n, ok := maxAttempts.(*ast.NumberLit)
		if ok && n.Value < 1 {
			name, _ := literalString(mustGet(s, "__name"))
			diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
				rangeOf(fileID, n.Loc()), "workflow %q step %q retry.max_attempts must be >= 1", d.Name, name))
		}
	}
	return diags
}

func checkCrewConstraints(fileID string, d *ast.Declaration) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	manager, hasManager := d.Get("manager")
	if !hasManager {
		return diags
	}
	managerName, ok := literalString(manager)
	if !ok {
		return diags
	}
	agentsVal, ok := d.Get("agents")
	if !ok {
		diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
			rangeOf(fileID, manager.Loc()), "crew %q manager %q set but crew has no agents", d.Name, managerName))
		return diags
	}
	arr, ok := agentsVal.(*ast.ArrayLit)
	if !ok {
		return diags
	}
	for _, el := range arr.Elements {
		if name, ok := literalString(el); ok && name == managerName {
			return diags
		}
	}
	diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
		rangeOf(fileID, manager.Loc()), "crew %q manager %q is not a member of agents", d.Name, managerName))
	return diags
}

func mustGet(o *ast.ObjectLit, key string) ast.Expression {
	v, _ := o.Get(key)
	return v
}
