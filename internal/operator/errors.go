package operator

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

func hclPos(loc token.Location) hcl.Pos {
	return hcl.Pos{Line: loc.Line, Column: loc.Column, Byte: loc.ByteOffset}
}

// evalErr builds an EvaluationError Diagnostic anchored at loc. The
// evaluator "fails fast on the first error per expression" per spec.md
// §7, so every operator and tree-walk error returned from this package
// is a single *hlxerr.Diagnostic rather than an accumulated Diagnostics.
func evalErr(fileID string, loc token.Location, code hlxerr.Code, format string, args ...any) *hlxerr.Diagnostic {
	rng := &hlxerr.SourceRange{FileID: fileID, Start: hclPos(loc)}
	return hlxerr.Newf(hlxerr.KindEvaluation, code, rng, format, args...)
}
