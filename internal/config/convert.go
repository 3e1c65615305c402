package config

import (
	"strings"

	"github.com/helixlang/hlx/internal/ast"
)

// Options controls ast_to_config's materialization per spec.md §4.3:
// "Expressions inside properties are preserved unevaluated unless
// evaluate=true is requested." Evaluate is accepted but not read:
// AstToConfig (and hlx.AstToConfig, which passes straight through)
// always materializes literal values only and never evaluates
// expressions, whatever Evaluate is set to.
type Options struct {
	Evaluate bool
	Strict   bool
}

// AstToConfig materializes the typed Configuration from a parsed
// HelixAst, per spec.md §4.3. Every declaration also lands in
// Configuration.Sections, including typed ones, so reference
// resolution (`@section[...]`) is uniform regardless of kind.
func AstToConfig(a *ast.HelixAst, opts Options) *Configuration {
	cfg := newConfiguration()
	for _, d := range a.Declarations {
		sec := newSection(d.Name, d.Subname, d.Properties)
		cfg.putSection(d.RawKind, d.QualifiedName(), sec)

		switch d.Kind {
		case ast.DeclProject:
			cfg.Projects[d.Name] = convertProject(d)
		case ast.DeclAgent:
			cfg.Agents[d.Name] = convertAgent(d)
		case ast.DeclWorkflow:
			cfg.Workflows[d.Name] = convertWorkflow(d)
		case ast.DeclMemory:
			cfg.Memory = convertMemory(d)
		case ast.DeclContext:
			cfg.Contexts[d.Name] = convertContext(d)
		case ast.DeclCrew:
			cfg.Crews[d.Name] = convertCrew(d)
		case ast.DeclPipeline:
			cfg.Pipelines[d.Name] = convertPipeline(d)
		case ast.DeclTask:
			// Task declarations have no dedicated typed mirror in
			// spec.md §3's Configuration; they remain reachable only
			// via Sections, matching how a Section{} with no typed
			// counterpart is handled.
		case ast.DeclSection:
			switch d.RawKind {
			case "plugin":
				cfg.Plugins = append(cfg.Plugins, convertPlugin(d))
			case "database":
				cfg.Databases[d.Name] = convertDatabase(d)
			}
		}
	}
	return cfg
}

// --- literal extraction helpers -------------------------------------------
//
// Grounded on original_source/src/types.rs's extract_string_value /
// extract_float_value / extract_int_value / extract_bool_value /
// extract_duration_value / extract_array_values / extract_map_values.
// These read literal values directly off the unevaluated AST; they do
// not resolve variables, references, or @-operator calls, and no path
// in this package invokes the evaluator, even when Options.Evaluate is
// set.

func extractString(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.StringLit:
		return n.Value
	case *ast.IdentifierExpr:
		return n.Name
	default:
		return ""
	}
}

func extractFloat(e ast.Expression) float64 {
	if n, ok := e.(*ast.NumberLit); ok {
		return n.Value
	}
	return 0
}

func extractInt(e ast.Expression) int64 {
	if n, ok := e.(*ast.NumberLit); ok {
		return int64(n.Value)
	}
	return 0
}

func extractBool(e ast.Expression) bool {
	if n, ok := e.(*ast.BoolLit); ok {
		return n.Value
	}
	return false
}

func extractDuration(e ast.Expression) *DurationValue {
	if n, ok := e.(*ast.DurationLit); ok {
		return &DurationValue{Millis: n.Millis(), OriginalValue: n.Value, OriginalUnit: n.Unit.String()}
	}
	return nil
}

func extractStringArray(e ast.Expression) []string {
	arr, ok := e.(*ast.ArrayLit)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr.Elements))
	for _, el := range arr.Elements {
		switch n := el.(type) {
		case *ast.StringLit:
			out = append(out, n.Value)
		case *ast.IdentifierExpr:
			out = append(out, n.Name)
		}
	}
	return out
}

func extractMap(e ast.Expression) map[string]ast.Expression {
	obj, ok := e.(*ast.ObjectLit)
	if !ok {
		return nil
	}
	out := make(map[string]ast.Expression, len(obj.Entries))
	for _, entry := range obj.Entries {
		out[entry.Key] = entry.Value
	}
	return out
}

func objField(obj map[string]ast.Expression, key string) (ast.Expression, bool) {
	v, ok := obj[key]
	return v, ok
}

// --- per-kind converters ---------------------------------------------------

func convertProject(d *ast.Declaration) *ProjectConfig {
	cfg := &ProjectConfig{Name: d.Name, Metadata: map[string]ast.Expression{}}
	for _, e := range d.Properties {
		switch e.Key {
		case "version":
			cfg.Version = extractString(e.Value)
		case "author":
			cfg.Author = extractString(e.Value)
		case "description":
			cfg.Description = extractString(e.Value)
		default:
			cfg.Metadata[e.Key] = e.Value
		}
	}
	return cfg
}

func convertAgent(d *ast.Declaration) *AgentConfig {
	cfg := &AgentConfig{Name: d.Name}
	for _, e := range d.Properties {
		switch e.Key {
		case "model":
			cfg.Model = extractString(e.Value)
		case "role":
			cfg.Role = extractString(e.Value)
		case "temperature":
			f := extractFloat(e.Value)
			cfg.Temperature = &f
		case "max_tokens":
			i := extractInt(e.Value)
			cfg.MaxTokens = &i
		case "capabilities":
			cfg.Capabilities = extractStringArray(e.Value)
		case "backstory":
			cfg.Backstory = backstoryText(e.Value)
		case "tools":
			cfg.Tools = extractStringArray(e.Value)
		case "constraints":
			cfg.Constraints = extractStringArray(e.Value)
		}
	}
	return cfg
}

// backstoryText joins a `backstory { ... }` nested block's values, or
// returns a plain string assignment verbatim.
func backstoryText(e ast.Expression) string {
	if s, ok := e.(*ast.StringLit); ok {
		return s.Value
	}
	obj, ok := e.(*ast.ObjectLit)
	if !ok {
		return ""
	}
	var lines []string
	for _, entry := range obj.Entries {
		if strings.HasPrefix(entry.Key, "__") {
			continue
		}
		lines = append(lines, extractString(entry.Value))
	}
	return strings.Join(lines, "\n")
}

func convertWorkflow(d *ast.Declaration) *WorkflowConfig {
	cfg := &WorkflowConfig{Name: d.Name, Trigger: TriggerConfig{Kind: TriggerManual}}
	for _, e := range d.Properties {
		switch e.Key {
		case "trigger":
			cfg.Trigger = convertTrigger(e.Value)
		case "step":
			cfg.Steps = append(cfg.Steps, convertSteps(e.Value)...)
		case "pipeline":
			cfg.Pipeline = convertPipelineValue(e.Value)
		case "outputs":
			cfg.Outputs = extractStringArray(e.Value)
		case "on_error":
			cfg.OnError = extractString(e.Value)
		case "timeout":
			cfg.Timeout = extractDuration(e.Value)
		}
	}
	return cfg
}

func convertTrigger(e ast.Expression) TriggerConfig {
	s := extractString(e)
	switch {
	case s == "manual" || s == "":
		return TriggerConfig{Kind: TriggerManual}
	case strings.HasPrefix(s, "schedule:"):
		return TriggerConfig{Kind: TriggerSchedule, Value: strings.TrimPrefix(s, "schedule:")}
	case strings.HasPrefix(s, "webhook:"):
		return TriggerConfig{Kind: TriggerWebhook, Value: strings.TrimPrefix(s, "webhook:")}
	case strings.HasPrefix(s, "event:"):
		return TriggerConfig{Kind: TriggerEvent, Value: strings.TrimPrefix(s, "event:")}
	case strings.HasPrefix(s, "file:"):
		return TriggerConfig{Kind: TriggerFileWatch, Value: strings.TrimPrefix(s, "file:")}
	default:
		return TriggerConfig{Kind: TriggerManual}
	}
}

// convertSteps normalizes the `step` property (which the parser
// folds into either a single ObjectLit or an ArrayLit of ObjectLit
// when the block repeats) into one or more StepConfig entries.
func convertSteps(e ast.Expression) []*StepConfig {
	switch n := e.(type) {
	case *ast.ObjectLit:
		return []*StepConfig{convertStep(n)}
	case *ast.ArrayLit:
		out := make([]*StepConfig, 0, len(n.Elements))
		for _, el := range n.Elements {
			if obj, ok := el.(*ast.ObjectLit); ok {
				out = append(out, convertStep(obj))
			}
		}
		return out
	default:
		return nil
	}
}

func convertStep(obj *ast.ObjectLit) *StepConfig {
	cfg := &StepConfig{}
	for _, entry := range obj.Entries {
		switch entry.Key {
		case "__name":
			cfg.Name = extractString(entry.Value)
		case "agent":
			cfg.Agent = extractString(entry.Value)
		case "crew":
			cfg.Crew = extractStringArray(entry.Value)
		case "task":
			cfg.Task = extractString(entry.Value)
		case "timeout":
			cfg.Timeout = extractDuration(entry.Value)
		case "parallel":
			cfg.Parallel = extractBool(entry.Value)
		case "depends_on":
			cfg.DependsOn = extractStringArray(entry.Value)
		case "retry":
			if retryObj, ok := entry.Value.(*ast.ObjectLit); ok {
				cfg.Retry = convertRetry(retryObj)
			}
		}
	}
	return cfg
}

func convertRetry(obj *ast.ObjectLit) *RetryConfig {
	m := extractMap(obj)
	maxAttempts, _ := objField(m, "max_attempts")
	delay, _ := objField(m, "delay")
	backoffExpr, _ := objField(m, "backoff")

	backoff := BackoffFixed
	switch extractString(backoffExpr) {
	case "linear":
		backoff = BackoffLinear
	case "exponential":
		backoff = BackoffExponential
	}
	return &RetryConfig{
		MaxAttempts: uint32(extractInt(maxAttempts)),
		Delay:       extractDuration(delay),
		Backoff:     backoff,
	}
}

func convertPipelineValue(e ast.Expression) *PipelineConfig {
	switch n := e.(type) {
	case *ast.PipelineExpr:
		return &PipelineConfig{Name: "default", Stages: n.Stages, Flow: strings.Join(n.Stages, " -> ")}
	case *ast.ObjectLit:
		name, _ := objField(extractMap(n), "__name")
		stagesExpr, _ := objField(extractMap(n), "stages")
		stages := extractStringArray(stagesExpr)
		if pe, ok := stagesExpr.(*ast.PipelineExpr); ok {
			stages = pe.Stages
		}
		return &PipelineConfig{Name: orDefault(extractString(name), "default"), Stages: stages, Flow: strings.Join(stages, " -> ")}
	default:
		return nil
	}
}

func convertPipeline(d *ast.Declaration) *PipelineConfig {
	for _, e := range d.Properties {
		if e.Key == "stages" {
			if pe, ok := e.Value.(*ast.PipelineExpr); ok {
				return &PipelineConfig{Name: d.Name, Stages: pe.Stages, Flow: strings.Join(pe.Stages, " -> ")}
			}
			stages := extractStringArray(e.Value)
			return &PipelineConfig{Name: d.Name, Stages: stages, Flow: strings.Join(stages, " -> ")}
		}
	}
	return &PipelineConfig{Name: d.Name}
}

func convertMemory(d *ast.Declaration) *MemoryConfig {
	cfg := &MemoryConfig{Persistence: true}
	for _, e := range d.Properties {
		switch e.Key {
		case "provider":
			cfg.Provider = extractString(e.Value)
		case "connection":
			cfg.Connection = extractString(e.Value)
		case "embeddings":
			if obj, ok := e.Value.(*ast.ObjectLit); ok {
				cfg.Embeddings = convertEmbeddings(obj)
			}
		case "cache_size":
			i := extractInt(e.Value)
			cfg.CacheSize = &i
		case "persistence":
			cfg.Persistence = extractBool(e.Value)
		}
	}
	if cfg.Embeddings == nil {
		cfg.Embeddings = &EmbeddingConfig{}
	}
	return cfg
}

func convertEmbeddings(obj *ast.ObjectLit) *EmbeddingConfig {
	cfg := &EmbeddingConfig{}
	for _, entry := range obj.Entries {
		switch entry.Key {
		case "model":
			cfg.Model = extractString(entry.Value)
		case "dimensions":
			cfg.Dimensions = uint32(extractInt(entry.Value))
		case "batch_size":
			b := uint32(extractInt(entry.Value))
			cfg.BatchSize = &b
		}
	}
	return cfg
}

func convertContext(d *ast.Declaration) *ContextConfig {
	cfg := &ContextConfig{Name: d.Name, Secrets: map[string]SecretRef{}, Variables: map[string]ast.Expression{}}
	for _, e := range d.Properties {
		switch e.Key {
		case "environment":
			cfg.Environment = extractString(e.Value)
		case "debug":
			cfg.Debug = extractBool(e.Value)
		case "max_tokens":
			u := uint64(extractInt(e.Value))
			cfg.MaxTokens = &u
		case "secrets":
			if obj, ok := e.Value.(*ast.ObjectLit); ok {
				for _, se := range obj.Entries {
					cfg.Secrets[se.Key] = convertSecretRef(se.Value)
				}
			}
		case "variables":
			if obj, ok := e.Value.(*ast.ObjectLit); ok {
				for _, ve := range obj.Entries {
					cfg.Variables[ve.Key] = ve.Value
				}
			}
		default:
			cfg.Variables[e.Key] = e.Value
		}
	}
	return cfg
}

func convertSecretRef(e ast.Expression) SecretRef {
	s := extractString(e)
	switch {
	case strings.HasPrefix(s, "vault:"):
		return SecretRef{Kind: SecretVault, Ref: strings.TrimPrefix(s, "vault:")}
	case strings.HasPrefix(s, "file:"):
		return SecretRef{Kind: SecretFile, Ref: strings.TrimPrefix(s, "file:")}
	default:
		return SecretRef{Kind: SecretEnvironment, Ref: strings.TrimPrefix(s, "env:")}
	}
}

func convertCrew(d *ast.Declaration) *CrewConfig {
	cfg := &CrewConfig{Name: d.Name, Process: ProcessSequential}
	for _, e := range d.Properties {
		switch e.Key {
		case "agents":
			cfg.Agents = extractStringArray(e.Value)
		case "process":
			switch extractString(e.Value) {
			case "hierarchical":
				cfg.Process = ProcessHierarchical
			case "parallel":
				cfg.Process = ProcessParallel
			case "consensus":
				cfg.Process = ProcessConsensus
			default:
				cfg.Process = ProcessSequential
			}
		case "manager":
			cfg.Manager = extractString(e.Value)
		case "max_iterations":
			i := uint32(extractInt(e.Value))
			cfg.MaxIterations = &i
		case "verbose":
			cfg.Verbose = extractBool(e.Value)
		}
	}
	return cfg
}

func convertPlugin(d *ast.Declaration) *PluginConfig {
	cfg := &PluginConfig{Name: d.Name, Version: "latest", Config: map[string]ast.Expression{}}
	for _, e := range d.Properties {
		switch e.Key {
		case "source":
			cfg.Source = extractString(e.Value)
		case "version":
			cfg.Version = extractString(e.Value)
		default:
			cfg.Config[e.Key] = e.Value
		}
	}
	return cfg
}

func convertDatabase(d *ast.Declaration) *DatabaseConfig {
	cfg := &DatabaseConfig{Name: d.Name, Properties: map[string]ast.Expression{}}
	for _, e := range d.Properties {
		switch e.Key {
		case "path":
			cfg.Path = extractString(e.Value)
		case "shards":
			i := extractInt(e.Value)
			cfg.Shards = &i
		case "compression":
			b := extractBool(e.Value)
			cfg.Compression = &b
		case "cache_size":
			i := extractInt(e.Value)
			cfg.CacheSize = &i
		case "vector_index":
			if obj, ok := e.Value.(*ast.ObjectLit); ok {
				cfg.VectorIndex = convertVectorIndex(obj)
			}
		default:
			cfg.Properties[e.Key] = e.Value
		}
	}
	return cfg
}

func convertVectorIndex(obj *ast.ObjectLit) *VectorIndexConfig {
	cfg := &VectorIndexConfig{}
	for _, entry := range obj.Entries {
		switch entry.Key {
		case "index_type":
			cfg.IndexType = extractString(entry.Value)
		case "dimensions":
			cfg.Dimensions = extractInt(entry.Value)
		case "m":
			m := extractInt(entry.Value)
			cfg.M = &m
		case "ef_construction":
			ef := extractInt(entry.Value)
			cfg.EfConstruction = &ef
		case "distance_metric":
			cfg.DistanceMetric = extractString(entry.Value)
		}
	}
	return cfg
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
