package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// Index is the name→declaration symbol table pass 1 builds, used by
// every later pass to resolve a reference without re-scanning the AST.
type Index struct {
	// ByKind indexes typed declarations (Agent, Workflow, ...) by their
	// bare Name, since spec.md §3 requires "all section names are
	// unique within their kind."
	ByKind map[ast.DeclKind]map[string]*ast.Declaration

	// BySection indexes every declaration, typed or generic, by its
	// RawKind and then by QualifiedName, mirroring config.Configuration
	// .Sections so `@section_name[...]` resolves uniformly regardless
	// of whether "section_name" is a typed keyword or a user section.
	BySection map[string]map[string]*ast.Declaration
}

// collectSymbols is pass 1: build the name→declaration index per kind
// and flag duplicate names within a kind as CodeSemanticDuplicateName.
func collectSymbols(tree *ast.HelixAst) (*Index, hlxerr.Diagnostics) {
	idx := &Index{
		ByKind:    map[ast.DeclKind]map[string]*ast.Declaration{},
		BySection: map[string]map[string]*ast.Declaration{},
	}
	var diags hlxerr.Diagnostics

	for _, d := range tree.Declarations {
		if d.Kind != ast.DeclSection {
			bucket, ok := idx.ByKind[d.Kind]
			if !ok {
				bucket = map[string]*ast.Declaration{}
				idx.ByKind[d.Kind] = bucket
			}
			if existing, dup := bucket[d.Name]; dup {
				diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticDuplicateName,
					rangeOf(tree.Header.FileID, d.NameLoc),
					"duplicate %s name %q (first declared at %s)", d.Kind, d.Name, locString(existing.NameLoc)))
			} else {
				bucket[d.Name] = d
			}
		}

		secBucket, ok := idx.BySection[d.RawKind]
		if !ok {
			secBucket = map[string]*ast.Declaration{}
			idx.BySection[d.RawKind] = secBucket
		}
		qn := d.QualifiedName()
		if existing, dup := secBucket[qn]; dup && d.Kind == ast.DeclSection {
			diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticDuplicateName,
				rangeOf(tree.Header.FileID, d.NameLoc),
				"duplicate %s section %q (first declared at %s)", d.RawKind, qn, locString(existing.NameLoc)))
		} else {
			secBucket[qn] = d
		}
	}

	return idx, diags
}
