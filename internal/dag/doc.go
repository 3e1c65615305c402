// Package dag is a small, concurrency-safe directed graph used to
// detect cycles among workflow `step.depends_on` chains. It holds no
// payload beyond node identity: internal/semantic builds one graph per
// workflow, keys nodes by the bare step name (e.g. "build"), and looks
// the underlying step back up itself.
package dag
