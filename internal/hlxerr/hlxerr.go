// Package hlxerr implements the error taxonomy of the HLX language
// pipeline: a stable code, an optional source location, a message and
// an optional hint, for every one of the error kinds spec.md §7 names.
//
// Locations are carried as SourceRange, which embeds hcl.Pos/hcl.Range
// from github.com/hashicorp/hcl/v2 purely as an interoperability bridge:
// a caller that embeds this library inside an HCL-based toolchain (the
// teacher this module is grounded on is exactly such a toolchain) can
// render our diagnostics against the same gutter as HCL's own, with no
// conversion step. HLX's own Severity set is richer than hcl.Diagnostic
// supports (Error/Warning only, no Info), so Diagnostic is a type of its
// own rather than an alias for hcl.Diagnostic.
package hlxerr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Code is a stable, machine-consumable error identifier.
type Code string

const (
	CodeLexUnterminatedString Code = "E_LEX_UNTERMINATED_STRING"
	CodeLexBadEscape          Code = "E_LEX_BAD_ESCAPE"
	CodeLexNumberOverflow     Code = "E_LEX_NUMBER_OVERFLOW"
	CodeLexBadDurationUnit    Code = "E_LEX_BAD_DURATION_UNIT"
	CodeLexUnexpectedByte     Code = "E_LEX_UNEXPECTED_BYTE"

	CodeParseUnexpectedToken Code = "E_PARSE_UNEXPECTED_TOKEN"
	CodeParseMismatchedBlock Code = "E_PARSE_MISMATCHED_BLOCK"
	CodeParseDuplicateKey    Code = "E_PARSE_DUPLICATE_KEY"

	CodeSemanticUnresolvedRef  Code = "E_UNRESOLVED_REFERENCE"
	CodeSemanticDuplicateName  Code = "E_DUPLICATE_NAME"
	CodeSemanticTypeMismatch   Code = "E_TYPE_MISMATCH"
	CodeSemanticConstraint     Code = "E_CONSTRAINT_VIOLATION"
	CodeSemanticCycle          Code = "E_CYCLE"
	CodeSemanticUnknownProp    Code = "E_UNKNOWN_PROPERTY"

	CodeEvalEnvMissing    Code = "E_ENV_MISSING"
	CodeEvalDivByZero     Code = "E_DIV_BY_ZERO"
	CodeEvalIndexRange    Code = "E_INDEX_RANGE"
	CodeEvalUnknownOp     Code = "E_UNKNOWN_OPERATOR"
	CodeEvalBadArgs       Code = "E_BAD_ARGUMENTS"
	CodeEvalJSON          Code = "E_JSON"
	CodeEvalTimeout       Code = "E_TIMEOUT"

	CodeCodegenUnsupported Code = "E_CODEGEN_UNSUPPORTED"

	CodeBinaryBadMagic    Code = "E_BINARY_BAD_MAGIC"
	CodeBinaryBadVersion  Code = "E_BINARY_BAD_VERSION"
	CodeBinaryChecksum    Code = "E_BINARY_CHECKSUM"
	CodeBinaryOutOfRange  Code = "E_BINARY_OUT_OF_RANGE"
	CodeBinaryTruncated   Code = "E_BINARY_TRUNCATED"

	CodeIO            Code = "E_IO"
	CodeConfiguration Code = "E_CONFIGURATION"
)

// Kind is the top-level taxonomy bucket a Code belongs to.
type Kind string

const (
	KindLex           Kind = "LexError"
	KindParse         Kind = "ParseError"
	KindSemantic      Kind = "SemanticError"
	KindEvaluation    Kind = "EvaluationError"
	KindCodegen       Kind = "CodegenError"
	KindBinaryFormat  Kind = "BinaryFormatError"
	KindIO            Kind = "IOError"
	KindTimeout       Kind = "TimeoutError"
	KindConfiguration Kind = "ConfigurationError"
)

// Severity mirrors spec.md §4.4's {Error, Warning, Info} set.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// SourceRange is a byte-range source location. Start/End embed hcl.Pos
// so this type is drop-in compatible with tooling expecting hcl.Range.
type SourceRange struct {
	FileID string
	Start  hcl.Pos
	End    hcl.Pos
}

// HCLRange converts to an hcl.Range for interop with HCL-based tooling.
func (r SourceRange) HCLRange() hcl.Range {
	return hcl.Range{Filename: r.FileID, Start: r.Start, End: r.End}
}

func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d", r.FileID, r.Start.Line, r.Start.Column)
}

// Diagnostic is one entry in an accumulated diagnostic set (lexer,
// parser, semantic analyzer) or a single terminal error (evaluator,
// loader).
type Diagnostic struct {
	Kind     Kind
	Code     Code
	Severity Severity
	Location *SourceRange
	Message  string
	Hint     string
}

func (d *Diagnostic) Error() string {
	loc := ""
	if d.Location != nil {
		loc = d.Location.String() + ": "
	}
	msg := fmt.Sprintf("%s%s [%s]: %s", loc, d.Severity, d.Code, d.Message)
	if d.Hint != "" {
		msg += "\n  hint: " + d.Hint
	}
	return msg
}

// New builds an Error-severity Diagnostic.
func New(kind Kind, code Code, loc *SourceRange, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Code: code, Severity: SeverityError, Location: loc, Message: message}
}

// Newf builds an Error-severity Diagnostic with a formatted message.
func Newf(kind Kind, code Code, loc *SourceRange, format string, args ...any) *Diagnostic {
	return New(kind, code, loc, fmt.Sprintf(format, args...))
}

// WithHint returns a copy of the diagnostic carrying the given hint.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d2 := *d
	d2.Hint = hint
	return &d2
}

// Warningf builds a Warning-severity Diagnostic.
func Warningf(kind Kind, code Code, loc *SourceRange, format string, args ...any) *Diagnostic {
	d := Newf(kind, code, loc, format, args...)
	d.Severity = SeverityWarning
	return d
}

// Diagnostics is an accumulated, ordered set of Diagnostic, as returned
// by the lexer, parser and semantic analyzer (spec.md §7: "the lexer
// and parser accumulate diagnostics ... and return a list").
type Diagnostics []*Diagnostic

// HasErrors reports whether any entry has Error severity, per spec.md
// §4.4: "'success' means no Error-severity entries."
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return "no diagnostics"
	}
	msg := ds[0].Error()
	if len(ds) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(ds)-1)
	}
	return msg
}

// Errors returns only the Error-severity entries.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
