// Package config materializes the typed Configuration spec.md §4.3
// describes from a parsed HelixAst: `ast_to_config` populates both the
// generic section-kind → section-name → property map spec.md §3
// requires, and the strongly-typed mirror fields for the typed
// declaration kinds.
//
// Grounded on original_source/src/types.rs's HelixConfig and its
// per-kind Config structs (AgentConfig, WorkflowConfig, ...), and on
// HelixLoader::ast_to_config / convert_* for the conversion itself.
package config

import "github.com/helixlang/hlx/internal/ast"

// Configuration is the materialized, typed view of a parsed HLX file.
type Configuration struct {
	Projects  map[string]*ProjectConfig
	Agents    map[string]*AgentConfig
	Workflows map[string]*WorkflowConfig
	Memory    *MemoryConfig
	Contexts  map[string]*ContextConfig
	Crews     map[string]*CrewConfig
	Pipelines map[string]*PipelineConfig
	Plugins   []*PluginConfig
	Databases map[string]*DatabaseConfig

	// Sections holds every declaration's raw, insertion-ordered
	// property map, keyed first by section kind (the RawKind the
	// parser recorded) and then by QualifiedName, including typed
	// declarations, which appear here too so `@section.prop[...]`
	// references resolve uniformly regardless of kind.
	Sections map[string]map[string]*Section
}

// Section is one generic, untyped declaration's materialized form.
type Section struct {
	Name       string
	Subname    string
	Properties map[string]ast.Expression // insertion order is NOT preserved here; see PropertyOrder
	PropertyOrder []string
}

// Get returns a property's unevaluated Expression and whether it was present.
func (s *Section) Get(key string) (ast.Expression, bool) {
	e, ok := s.Properties[key]
	return e, ok
}

func newConfiguration() *Configuration {
	return &Configuration{
		Projects:  map[string]*ProjectConfig{},
		Agents:    map[string]*AgentConfig{},
		Workflows: map[string]*WorkflowConfig{},
		Contexts:  map[string]*ContextConfig{},
		Crews:     map[string]*CrewConfig{},
		Pipelines: map[string]*PipelineConfig{},
		Databases: map[string]*DatabaseConfig{},
		Sections:  map[string]map[string]*Section{},
	}
}

func newSection(name, subname string, props []ast.ObjectEntry) *Section {
	s := &Section{Name: name, Subname: subname, Properties: map[string]ast.Expression{}}
	for _, e := range props {
		s.Properties[e.Key] = e.Value
		s.PropertyOrder = append(s.PropertyOrder, e.Key)
	}
	return s
}

func (c *Configuration) putSection(kind, qualifiedName string, sec *Section) {
	bucket, ok := c.Sections[kind]
	if !ok {
		bucket = map[string]*Section{}
		c.Sections[kind] = bucket
	}
	bucket[qualifiedName] = sec
}

// ProjectConfig mirrors a `project { ... }` declaration.
type ProjectConfig struct {
	Name        string
	Version     string
	Author      string
	Description string
	Metadata    map[string]ast.Expression
}

// AgentConfig mirrors an `agent "name" { ... }` declaration.
type AgentConfig struct {
	Name         string
	Model        string
	Role         string
	Temperature  *float64
	MaxTokens    *int64
	Capabilities []string
	Backstory    string
	Tools        []string
	Constraints  []string
}

// WorkflowConfig mirrors a `workflow "name" { ... }` declaration.
type WorkflowConfig struct {
	Name     string
	Trigger  TriggerConfig
	Steps    []*StepConfig
	Pipeline *PipelineConfig
	Outputs  []string
	OnError  string
	Timeout  *DurationValue
}

// StepConfig mirrors one `step "name" { ... }` nested block.
type StepConfig struct {
	Name       string
	Agent      string
	Crew       []string
	Task       string
	Timeout    *DurationValue
	Parallel   bool
	DependsOn  []string
	Retry      *RetryConfig
}

// DurationValue carries both the canonicalized millisecond value and
// the original literal, per spec.md §3's "durations normalize to a
// canonical unit (milliseconds, i64) for comparison but retain their
// original literal for round-trip" invariant.
type DurationValue struct {
	Millis       int64
	OriginalValue float64
	OriginalUnit  string
}

// TriggerKind is the closed set of workflow trigger variants.
type TriggerKind int

const (
	TriggerManual TriggerKind = iota
	TriggerSchedule
	TriggerWebhook
	TriggerEvent
	TriggerFileWatch
)

// TriggerConfig mirrors a `trigger = ...` entry.
type TriggerConfig struct {
	Kind  TriggerKind
	Value string // cron expression, URL, event name, or path, depending on Kind
}

// RetryConfig mirrors a `retry { ... }` nested block.
type RetryConfig struct {
	MaxAttempts uint32
	Delay       *DurationValue
	Backoff     BackoffStrategy
}

// BackoffStrategy is the closed set of retry backoff strategies.
type BackoffStrategy int

const (
	BackoffFixed BackoffStrategy = iota
	BackoffLinear
	BackoffExponential
)

// MemoryConfig mirrors the single `memory { ... }` declaration.
type MemoryConfig struct {
	Provider    string
	Connection  string
	Embeddings  *EmbeddingConfig
	CacheSize   *int64
	Persistence bool
}

// EmbeddingConfig mirrors a nested `embeddings { ... }` block.
type EmbeddingConfig struct {
	Model     string
	Dimensions uint32
	BatchSize  *uint32
}

// ContextConfig mirrors a `context "name" { ... }` declaration.
type ContextConfig struct {
	Name      string
	Environment string
	Debug     bool
	MaxTokens *uint64
	Secrets   map[string]SecretRef
	Variables map[string]ast.Expression
}

// SecretRefKind is the closed set of secret-reference backends.
type SecretRefKind int

const (
	SecretEnvironment SecretRefKind = iota
	SecretVault
	SecretFile
)

// SecretRef is one `secrets { key = ... }` entry.
type SecretRef struct {
	Kind SecretRefKind
	Ref  string
}

// ProcessType is the closed set of crew.process values decided in
// SPEC_FULL.md §E: {sequential, hierarchical, parallel, consensus}.
type ProcessType int

const (
	ProcessSequential ProcessType = iota
	ProcessHierarchical
	ProcessParallel
	ProcessConsensus
)

// CrewConfig mirrors a `crew "name" { ... }` declaration.
type CrewConfig struct {
	Name          string
	Agents        []string
	Process       ProcessType
	Manager       string
	MaxIterations *uint32
	Verbose       bool
}

// PluginConfig mirrors a `plugin "name" { ... }` declaration
// (supplemented from original_source/src/types.rs; spec.md does not
// name Plugin as a typed Keyword, so it is treated as a generic
// Section kind rather than a new Keyword variant; see SPEC_FULL.md §D).
type PluginConfig struct {
	Name    string
	Source  string
	Version string
	Config  map[string]ast.Expression
}

// DatabaseConfig mirrors a `database "name" { ... }` declaration
// (also a SPEC_FULL.md §D supplement, handled as a generic section).
type DatabaseConfig struct {
	Name        string
	Path        string
	Shards      *int64
	Compression *bool
	CacheSize   *int64
	VectorIndex *VectorIndexConfig
	Properties  map[string]ast.Expression
}

// VectorIndexConfig mirrors a nested `vector_index { ... }` block.
type VectorIndexConfig struct {
	IndexType      string
	Dimensions     int64
	M              *int64
	EfConstruction *int64
	DistanceMetric string
}

// PipelineConfig mirrors a `pipeline "name" { ... }` declaration.
type PipelineConfig struct {
	Name   string
	Stages []string
	Flow   string
}
