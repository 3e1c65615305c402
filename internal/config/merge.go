package config

// Merge combines several Configurations into one, last-writer-wins per
// section name: a later configuration's declaration with the same
// kind+name replaces an earlier one entirely, rather than merging their
// properties. Plugins are the one exception: since a plugin is an
// ordered manifest entry rather than a name-addressed section, every
// configuration's Plugins are concatenated in argument order instead.
//
// Grounded on original_source/src/types.rs's HelixLoader::merge_configs,
// which this package's ast_to_config/convert_* conversions already
// mirror per-declaration; Merge is the directory-loading counterpart
// that combines what bundler.CollectSources discovers across files.
func Merge(configs ...*Configuration) *Configuration {
	out := newConfiguration()
	for _, c := range configs {
		if c == nil {
			continue
		}
		for name, p := range c.Projects {
			out.Projects[name] = p
		}
		for name, a := range c.Agents {
			out.Agents[name] = a
		}
		for name, w := range c.Workflows {
			out.Workflows[name] = w
		}
		if c.Memory != nil {
			out.Memory = c.Memory
		}
		for name, ctx := range c.Contexts {
			out.Contexts[name] = ctx
		}
		for name, crew := range c.Crews {
			out.Crews[name] = crew
		}
		for name, p := range c.Pipelines {
			out.Pipelines[name] = p
		}
		for name, db := range c.Databases {
			out.Databases[name] = db
		}
		out.Plugins = append(out.Plugins, c.Plugins...)

		for kind, bucket := range c.Sections {
			for qualifiedName, sec := range bucket {
				out.putSection(kind, qualifiedName, sec)
			}
		}
	}
	return out
}
