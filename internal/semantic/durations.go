package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// normalizeDurations is pass 6. DurationLit.Millis() already computes
// the canonical millisecond value on demand (see ast.go), so this pass
// has nothing to mutate at the AST level; it walks every declaration's
// expressions once to flag a duration whose magnitude would overflow a
// signed 64-bit millisecond count, which spec.md §3's "durations
// normalize to a canonical unit (milliseconds, i64)" invariant rules
// out silently wrapping.
func normalizeDurations(tree *ast.HelixAst) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	ast.Walk(tree, durationOverflowVisitor{fileID: tree.Header.FileID, diags: &diags})
	return diags
}

type durationOverflowVisitor struct {
	fileID string
	diags  *hlxerr.Diagnostics
}

func (v durationOverflowVisitor) VisitDeclaration(*ast.Declaration) bool { return true }

func (v durationOverflowVisitor) VisitExpression(e ast.Expression) bool {
	dur, ok := e.(*ast.DurationLit)
	if !ok {
		return true
	}
	const maxMillis = float64(1<<63 - 1)
	magnitude := dur.Value * float64(dur.Unit.Millis())
	if magnitude > maxMillis || magnitude < -maxMillis {
		*v.diags = append(*v.diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticConstraint,
			rangeOf(v.fileID, dur.Loc()), "duration %v%s overflows a 64-bit millisecond count", dur.Value, dur.Unit))
	}
	return true
}
