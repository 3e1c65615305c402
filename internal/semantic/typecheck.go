package semantic

import (
	"fmt"
	"strings"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// propType is the closed set of primitive shapes a typed property can
// declare, per spec.md §4.4 pass 3's "expected primitive type (string,
// number, bool, duration, array-of-string, map)".
type propType int

const (
	tString propType = iota
	tNumber
	tBool
	tDuration
	tArray
	tMap
	tAny // backstory and similarly shaped properties that accept more than one literal shape
)

// schema lists the known properties of one typed declaration kind.
// Properties not listed here are unknown: a warning, or (in strict
// mode) an error, per spec.md §4.4 pass 3.
var schemas = map[ast.DeclKind]map[string]propType{
	ast.DeclProject: {
		"version": tString, "author": tString, "description": tString,
	},
	ast.DeclAgent: {
		"model": tString, "role": tString, "temperature": tNumber,
		"max_tokens": tNumber, "capabilities": tArray, "backstory": tAny,
		"tools": tArray, "constraints": tArray,
	},
	ast.DeclWorkflow: {
		"trigger": tString, "step": tAny, "pipeline": tAny,
		"outputs": tArray, "on_error": tString, "timeout": tDuration,
	},
	ast.DeclMemory: {
		"provider": tString, "connection": tString, "embeddings": tMap,
		"cache_size": tNumber, "persistence": tBool,
	},
	ast.DeclContext: {
		"environment": tString, "debug": tBool, "max_tokens": tNumber,
		"secrets": tMap, "variables": tMap,
	},
	ast.DeclCrew: {
		"agents": tArray, "process": tString, "manager": tString,
		"max_iterations": tNumber, "verbose": tBool,
	},
	ast.DeclPipeline: {
		"stages": tAny,
	},
}

// checkTypes is pass 3.
func checkTypes(tree *ast.HelixAst, strict bool) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics
	for _, d := range tree.Declarations {
		schema, known := schemas[d.Kind]
		if !known {
			continue // generic Section: no declared schema to check against.
		}
		for _, e := range d.Properties {
			expected, declared := schema[e.Key]
			if !declared {
				sev := hlxerr.Warningf(hlxerr.KindSemantic, hlxerr.CodeSemanticUnknownProp,
					rangeOf(tree.Header.FileID, e.KeyLoc),
					"unknown property %q on %s %q", e.Key, d.Kind, d.Name)
				if strict {
					sev.Severity = hlxerr.SeverityError
				}
				diags = append(diags, sev)
				continue
			}
			if expected == tAny || isDeferred(e.Value) {
				continue
			}
			if !matchesType(e.Value, expected) {
				diags = append(diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticTypeMismatch,
					rangeOf(tree.Header.FileID, e.Value.Loc()),
					"property %q on %s %q expected %s, got %s", e.Key, d.Kind, d.Name, typeName(expected), describeType(e.Value)))
			}
		}
	}
	return diags
}

// isDeferred reports whether a value's type can only be known once
// evaluated (a variable, marker, or unresolved operator call); type
// checking such properties would require running the evaluator, which
// pass 3 deliberately does not do.
func isDeferred(e ast.Expression) bool {
	switch e.(type) {
	case *ast.VariableExpr, *ast.VariableMarker, *ast.AtOperatorCall,
		*ast.EnvRef, *ast.MemoryRef, *ast.SectionReference, *ast.IdentifierExpr:
		return true
	default:
		return false
	}
}

func matchesType(e ast.Expression, t propType) bool {
	switch t {
	case tString:
		_, ok := e.(*ast.StringLit)
		return ok
	case tNumber:
		_, ok := e.(*ast.NumberLit)
		return ok
	case tBool:
		_, ok := e.(*ast.BoolLit)
		return ok
	case tDuration:
		_, ok := e.(*ast.DurationLit)
		return ok
	case tArray:
		_, ok := e.(*ast.ArrayLit)
		return ok
	case tMap:
		_, ok := e.(*ast.ObjectLit)
		return ok
	default:
		return true
	}
}

func typeName(t propType) string {
	switch t {
	case tString:
		return "string"
	case tNumber:
		return "number"
	case tBool:
		return "bool"
	case tDuration:
		return "duration"
	case tArray:
		return "array"
	case tMap:
		return "map"
	default:
		return "any"
	}
}

func describeType(e ast.Expression) string {
	name := fmt.Sprintf("%T", e)
	return strings.TrimPrefix(strings.TrimPrefix(name, "*ast."), "ast.")
}
