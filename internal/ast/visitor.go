package ast

// Visitor receives a callback per node kind as Walk traverses a
// HelixAst in declaration order. Every method returns a bool: false
// stops descent into that node's children (but sibling traversal
// continues), mirroring the Accept/Visitor split the wider example
// corpus uses for its own IR walkers.
type Visitor interface {
	VisitDeclaration(d *Declaration) bool
	VisitExpression(e Expression) bool
}

// Walk visits every declaration of a and, for each, every expression
// reachable from its properties, in source order.
func Walk(a *HelixAst, v Visitor) {
	for _, d := range a.Declarations {
		if !v.VisitDeclaration(d) {
			continue
		}
		for _, entry := range d.Properties {
			WalkExpression(entry.Value, v)
		}
	}
}

// WalkExpression visits e and recurses into its children in evaluation
// order (left-to-right, positional-before-named).
func WalkExpression(e Expression, v Visitor) {
	if e == nil || !v.VisitExpression(e) {
		return
	}
	switch n := e.(type) {
	case *ArrayLit:
		for _, el := range n.Elements {
			WalkExpression(el, v)
		}
	case *ObjectLit:
		for _, entry := range n.Entries {
			WalkExpression(entry.Value, v)
		}
	case *BinaryExpr:
		WalkExpression(n.Left, v)
		WalkExpression(n.Right, v)
	case *UnaryExpr:
		WalkExpression(n.Operand, v)
	case *AtOperatorCall:
		for _, p := range n.Positional {
			WalkExpression(p, v)
		}
		for _, named := range n.Named {
			WalkExpression(named.Value, v)
		}
	case *EnvRef:
		if n.Default != nil {
			WalkExpression(n.Default, v)
		}
	case *SectionReference:
		if n.Key != nil {
			WalkExpression(n.Key, v)
		}
	// StringLit, NumberLit, BoolLit, NullLit, DurationLit, IdentifierExpr,
	// VariableExpr, VariableMarker, MemoryRef, PipelineExpr are leaves.
	}
}

// CountExpressions returns the total number of Expression nodes
// reachable from a, useful for the boundary-behavior test of §8
// ("deeply nested objects parse within linear time").
func CountExpressions(a *HelixAst) int {
	n := 0
	counter := countingVisitor{count: &n}
	Walk(a, counter)
	return n
}

type countingVisitor struct{ count *int }

func (countingVisitor) VisitDeclaration(*Declaration) bool { return true }
func (c countingVisitor) VisitExpression(Expression) bool {
	*c.count++
	return true
}
