package ast

import "github.com/helixlang/hlx/internal/token"

// DeclKind tags which concrete Declaration variant a node is, used by
// the semantic analyzer's symbol index and by the binary codegen's
// section kind_tag (spec.md §4.6.2).
type DeclKind uint16

const (
	DeclSection DeclKind = iota // untyped/user-defined section (Tilde or bare identifier)
	DeclProject
	DeclAgent
	DeclWorkflow
	DeclTask
	DeclContext
	DeclCrew
	DeclPipeline
	DeclMemory
)

func (k DeclKind) String() string {
	switch k {
	case DeclProject:
		return "project"
	case DeclAgent:
		return "agent"
	case DeclWorkflow:
		return "workflow"
	case DeclTask:
		return "task"
	case DeclContext:
		return "context"
	case DeclCrew:
		return "crew"
	case DeclPipeline:
		return "pipeline"
	case DeclMemory:
		return "memory"
	default:
		return "section"
	}
}

// Declaration is the common shape every top-level HLX block reduces
// to: spec.md §3 names typed variants (Project, Agent, ...) plus the
// generic Section, but every one of them carries a name, an optional
// subname, and an insertion-ordered property map, so a single struct
// with a Kind tag, rather than eight near-identical Go types,
// matches how original_source/src/types.rs's Declaration enum holds
// a shared Block payload per variant.
type Declaration struct {
	Kind     DeclKind
	Name     string // "" for an anonymous block, though the grammar always requires one
	NameLoc  token.Location
	Subname  string // "" unless the declaration used `kind "name" "subname" { ... }`
	RawKind  string // the literal leading identifier/keyword text, e.g. "agent" or "~custom"
	Location token.Location
	Opener   token.Kind // which of the four delimiter pairs introduced the block
	Properties []ObjectEntry
}

// Get returns the property value for key and whether it was present.
func (d *Declaration) Get(key string) (Expression, bool) {
	for _, e := range d.Properties {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// QualifiedName returns "{kind}.{subname}" when Subname is set,
// matching spec.md §4.3's "each Section with subname is flattened
// under the key {kind}.{subname}" rule, and Name otherwise.
func (d *Declaration) QualifiedName() string {
	if d.Subname != "" {
		return d.RawKind + "." + d.Subname
	}
	return d.Name
}

// Header carries the per-file metadata spec.md §3's HelixAst requires:
// a source file id and a version marker (set by the caller, not parsed
// from source, since HLX files carry no version pragma of their own).
type Header struct {
	FileID  string
	Version string
}

// HelixAst is the parsed, structured representation of one HLX source
// file: a Header plus the ordered sequence of Declaration spec.md §3
// names. Declaration order is preserved end-to-end through IR lowering
// and binary section emission (spec.md §5's ordering guarantee).
type HelixAst struct {
	Header       Header
	Declarations []*Declaration
}

// ByKind returns every declaration of the given kind, in source order.
func (a *HelixAst) ByKind(kind DeclKind) []*Declaration {
	var out []*Declaration
	for _, d := range a.Declarations {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Find returns the first declaration of the given kind with the given
// name, and whether one was found.
func (a *HelixAst) Find(kind DeclKind, name string) (*Declaration, bool) {
	for _, d := range a.Declarations {
		if d.Kind == kind && d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// KeywordToDeclKind maps a recognized token.Keyword to its DeclKind,
// or DeclSection with ok=false for keywords that introduce a
// typed-but-not-block-level construct (Step, Trigger, ...: these are
// nested properties/sections within a Workflow or Agent, not top-level
// Declaration kinds themselves).
func KeywordToDeclKind(kw token.Keyword) (DeclKind, bool) {
	switch kw {
	case token.Project:
		return DeclProject, true
	case token.Agent:
		return DeclAgent, true
	case token.Workflow:
		return DeclWorkflow, true
	case token.Task:
		return DeclTask, true
	case token.Context:
		return DeclContext, true
	case token.Crew:
		return DeclCrew, true
	case token.Pipeline:
		return DeclPipeline, true
	case token.Memory:
		return DeclMemory, true
	default:
		return DeclSection, false
	}
}
