// Package token defines the lexical tokens of HLX source text: the
// tagged Token variant and Keyword closed set of spec.md §3, plus the
// SourceLocation every token carries for diagnostics.
//
// Grounded on original_source/src/parser.rs's token usage (the Rust
// lexer.rs that produced these tokens was not retrieved; its shape is
// reconstructed from how parser.rs consumes Token/Keyword/TimeUnit).
package token

import "fmt"

// Kind identifies which variant a Token holds.
type Kind int

const (
	Invalid Kind = iota
	EOF

	String
	Number
	Bool
	Identifier
	Variable     // $NAME
	VariableMarker // !NAME!
	Reference    // @identifier
	KeywordTok
	DurationTok

	Assign // =
	Plus
	Minus
	Star
	Slash
	Arrow // ->
	Bang  // !

	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	LAngle
	RAngle
	ColonOpen  // ':' used as a block opener
	Semicolon  // ';' used as the matching block closer

	Colon // property-less ':' is never produced standalone; kept for completeness of spec.md's token set
	Comma
	Dot
	Tilde
	At

	Error // lexer error-recovery token
)

// Keyword is the closed set from spec.md §3.
type Keyword int

const (
	NoKeyword Keyword = iota
	Project
	Agent
	Workflow
	Task
	Context
	Crew
	Pipeline
	Memory
	Step
	Trigger
	Capabilities
	Backstory
	Tools
	Secrets
	Variables
	Embeddings
	Cache
	Retry
	Import
)

var keywords = map[string]Keyword{
	"project":      Project,
	"agent":        Agent,
	"workflow":     Workflow,
	"task":         Task,
	"context":      Context,
	"crew":         Crew,
	"pipeline":     Pipeline,
	"memory":       Memory,
	"step":         Step,
	"trigger":      Trigger,
	"capabilities": Capabilities,
	"backstory":    Backstory,
	"tools":        Tools,
	"secrets":      Secrets,
	"variables":    Variables,
	"embeddings":   Embeddings,
	"cache":        Cache,
	"retry":        Retry,
	"import":       Import,
}

// LookupKeyword performs the perfect-lookup match spec.md §4.1 requires;
// ok is false when name is an ordinary identifier.
func LookupKeyword(name string) (Keyword, bool) {
	kw, ok := keywords[name]
	return kw, ok
}

func (k Keyword) String() string {
	for name, kw := range keywords {
		if kw == k {
			return name
		}
	}
	return "<unknown-keyword>"
}

// TimeUnit is a Duration's unit suffix.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Minutes
	Hours
	Days
)

func (u TimeUnit) String() string {
	switch u {
	case Seconds:
		return "s"
	case Minutes:
		return "m"
	case Hours:
		return "h"
	case Days:
		return "d"
	default:
		return "?"
	}
}

// Millis returns the number of milliseconds in one unit of u.
func (u TimeUnit) Millis() int64 {
	switch u {
	case Seconds:
		return 1000
	case Minutes:
		return 60 * 1000
	case Hours:
		return 60 * 60 * 1000
	case Days:
		return 24 * 60 * 60 * 1000
	default:
		return 1
	}
}

// LookupUnit maps a single-letter duration suffix to a TimeUnit.
func LookupUnit(suffix byte) (TimeUnit, bool) {
	switch suffix {
	case 's':
		return Seconds, true
	case 'm':
		return Minutes, true
	case 'h':
		return Hours, true
	case 'd':
		return Days, true
	default:
		return 0, false
	}
}

// Location is the source position a Token carries, matching spec.md
// §3's {file_id, line, column, byte_offset, length}.
type Location struct {
	FileID     string
	Line       int
	Column     int
	ByteOffset int
	Length     int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FileID, l.Line, l.Column)
}

// Token is a single lexical token with its source location and, for
// variants that carry a payload, the decoded payload value.
type Token struct {
	Kind     Kind
	Location Location

	Str      string  // String, Identifier, Variable, VariableMarker, Reference name
	Num      float64 // Number
	BoolVal  bool    // Bool
	Keyword  Keyword // KeywordTok
	DurVal   float64 // DurationTok
	DurUnit  TimeUnit
	ErrMsg   string // Error
}

func (t Token) String() string {
	switch t.Kind {
	case String:
		return fmt.Sprintf("String(%q)", t.Str)
	case Number:
		return fmt.Sprintf("Number(%v)", t.Num)
	case Bool:
		return fmt.Sprintf("Bool(%v)", t.BoolVal)
	case Identifier:
		return fmt.Sprintf("Identifier(%s)", t.Str)
	case Variable:
		return fmt.Sprintf("Variable($%s)", t.Str)
	case VariableMarker:
		return fmt.Sprintf("VariableMarker(!%s!)", t.Str)
	case Reference:
		return fmt.Sprintf("Reference(@%s)", t.Str)
	case KeywordTok:
		return fmt.Sprintf("Keyword(%s)", t.Keyword)
	case DurationTok:
		return fmt.Sprintf("Duration(%v%s)", t.DurVal, t.DurUnit)
	case EOF:
		return "Eof"
	case Error:
		return fmt.Sprintf("Error(%s)", t.ErrMsg)
	default:
		return kindNames[t.Kind]
	}
}

// String renders a Kind's punctuation/delimiter spelling, or a
// bracketed placeholder for kinds that carry a payload (use Token's
// own String for those).
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	switch k {
	case EOF:
		return "Eof"
	default:
		return "<token>"
	}
}

var kindNames = map[Kind]string{
	Assign: "=", Plus: "+", Minus: "-", Star: "*", Slash: "/", Arrow: "->", Bang: "!",
	LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]", LParen: "(", RParen: ")",
	LAngle: "<", RAngle: ">", ColonOpen: ":", Semicolon: ";", Colon: ":",
	Comma: ",", Dot: ".", Tilde: "~", At: "@", Invalid: "<invalid>",
}
