package semantic

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

func hclPos(loc token.Location) hcl.Pos {
	return hcl.Pos{Line: loc.Line, Column: loc.Column, Byte: loc.ByteOffset}
}

func rangeOf(fileID string, loc token.Location) *hlxerr.SourceRange {
	return &hlxerr.SourceRange{FileID: fileID, Start: hclPos(loc)}
}

func locString(loc token.Location) string {
	return loc.String()
}
