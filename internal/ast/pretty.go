package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PrintStyle controls pretty_print's output, per spec.md §4.3.
type PrintStyle struct {
	// Canonicalize sorts each block's properties alphabetically instead
	// of preserving insertion order. Off by default.
	Canonicalize bool
}

const indentUnit = "    " // 4 spaces, per spec.md §4.3

// PrettyPrint renders a canonically with 4-space indentation and `{}`
// blocks, regardless of which of the four equivalent delimiter pairs
// the source actually used (spec.md §4.6.3's decompiler round-trip
// normalizes delimiters to `{}` the same way).
func PrettyPrint(a *HelixAst, style PrintStyle) string {
	var sb strings.Builder
	for i, d := range a.Declarations {
		if i > 0 {
			sb.WriteByte('\n')
		}
		printDeclaration(&sb, d, style, 0)
	}
	return sb.String()
}

func printDeclaration(sb *strings.Builder, d *Declaration, style PrintStyle, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	sb.WriteString(indent)
	sb.WriteString(d.RawKind)
	if d.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(quoteIfNeeded(d.Name))
	}
	if d.Subname != "" {
		sb.WriteByte(' ')
		sb.WriteString(quoteIfNeeded(d.Subname))
	}
	sb.WriteString(" {\n")
	printProperties(sb, d.Properties, style, depth+1)
	sb.WriteString(indent)
	sb.WriteString("}\n")
}

func printProperties(sb *strings.Builder, props []ObjectEntry, style PrintStyle, depth int) {
	ordered := props
	if style.Canonicalize {
		ordered = append([]ObjectEntry(nil), props...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Key < ordered[j].Key })
	}
	indent := strings.Repeat(indentUnit, depth)
	for _, entry := range ordered {
		sb.WriteString(indent)
		sb.WriteString(entry.Key)
		sb.WriteString(" = ")
		sb.WriteString(printExpression(entry.Value, style, depth))
		sb.WriteByte('\n')
	}
}

func printExpression(e Expression, style PrintStyle, depth int) string {
	switch n := e.(type) {
	case *StringLit:
		return strconv.Quote(n.Value)
	case *NumberLit:
		return formatNumber(n.Value)
	case *BoolLit:
		if n.Value {
			return "true"
		}
		return "false"
	case *NullLit:
		return "null"
	case *DurationLit:
		return formatNumber(n.Value) + n.Unit.String()
	case *ArrayLit:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = printExpression(el, style, depth)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ObjectLit:
		if len(n.Entries) == 0 {
			return "{}"
		}
		var sb strings.Builder
		sb.WriteString("{\n")
		printProperties(&sb, n.Entries, style, depth+1)
		sb.WriteString(strings.Repeat(indentUnit, depth))
		sb.WriteByte('}')
		return sb.String()
	case *IdentifierExpr:
		return n.Name
	case *VariableExpr:
		return "$" + n.Name
	case *VariableMarker:
		return "!" + n.Name + "!"
	case *EnvRef:
		if n.Default != nil {
			return fmt.Sprintf("@env(%q, %s)", n.Name, printExpression(n.Default, style, depth))
		}
		return fmt.Sprintf("@env[%q]", n.Name)
	case *MemoryRef:
		return fmt.Sprintf("@memory[%q]", n.Path)
	case *AtOperatorCall:
		return printAtCall(n, style, depth)
	case *BinaryExpr:
		return printExpression(n.Left, style, depth) + " " + n.Op.String() + " " + printExpression(n.Right, style, depth)
	case *UnaryExpr:
		return "-" + printExpression(n.Operand, style, depth)
	case *PipelineExpr:
		return strings.Join(n.Stages, " -> ")
	case *SectionReference:
		name := "@" + n.Section
		if n.Property != "" {
			name += "." + n.Property
		}
		if n.Key != nil {
			name += "[" + printExpression(n.Key, style, depth) + "]"
		}
		return name
	default:
		return fmt.Sprintf("<unknown-expr %T>", n)
	}
}

func printAtCall(n *AtOperatorCall, style PrintStyle, depth int) string {
	name := "@" + n.Name
	if n.Member != "" {
		name += "." + n.Member
	}
	if len(n.Positional) == 0 && len(n.Named) == 0 {
		return name
	}
	parts := make([]string, 0, len(n.Positional)+len(n.Named))
	for _, p := range n.Positional {
		parts = append(parts, printExpression(p, style, depth))
	}
	for _, named := range n.Named {
		parts = append(parts, named.Key+"="+printExpression(named.Value, style, depth))
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// quoteIfNeeded renders a declaration name. The grammar's examples
// always quote names (`agent "bot"`), and pretty_print canonicalizes
// to that form regardless of whether the source used a bare name.
func quoteIfNeeded(s string) string {
	return strconv.Quote(s)
}
