// Package bundler combines several `.hlx` files into one compiled
// program using the parallel-map/serial-merge pattern spec.md §5
// mandates: each file is lexed, parsed, validated, and lowered to IR
// independently and concurrently (compilation has no shared mutable
// state), then the per-file results are merged back together serially,
// in input order, so the merged string pool and declaration order stay
// deterministic regardless of how the workers finished.
//
// The worker pool shape (a fixed number of goroutines draining a
// shared work queue under a context that's cancelled on first failure)
// is grounded on the teacher's internal/dag.Executor.worker loop,
// generalized from graph-dependent node scheduling to independent,
// order-preserving file compilation.
package bundler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/ctxlog"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
)

// CollectSources walks dir and returns every `.hlx` file found, sorted
// lexically so the returned order (and therefore the merge order
// Bundle uses) is stable across runs and platforms.
//
// Grounded on original_source/src/types.rs's HelixLoader::load_directory.
func CollectSources(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".hlx") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, hlxerr.Newf(hlxerr.KindIO, hlxerr.CodeIO, nil, "scanning %s: %v", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// fileResult is one file's independent compilation outcome.
type fileResult struct {
	path  string
	prog  *codegen.Program
	pool  *codegen.StringPool
	diags hlxerr.Diagnostics
	err   error
}

func compileFile(path string) fileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: hlxerr.Newf(hlxerr.KindIO, hlxerr.CodeIO, nil, "reading %s: %v", path, err)}
	}

	toks, diags := lexer.Tokenize(src, path)
	if diags.HasErrors() {
		return fileResult{path: path, diags: diags, err: diags}
	}
	tree, pdiags := parser.Parse(toks, path)
	diags = append(diags, pdiags...)
	if pdiags.HasErrors() {
		return fileResult{path: path, diags: diags, err: pdiags}
	}
	sdiags := semantic.Validate(tree, semantic.Options{})
	diags = append(diags, sdiags...)
	if sdiags.HasErrors() {
		return fileResult{path: path, diags: diags, err: sdiags}
	}

	prog, pool := codegen.Lower(tree)
	return fileResult{path: path, prog: prog, pool: pool, diags: diags}
}

// Bundle compiles every path concurrently (the parallel-map stage),
// then merges the results in input order into one codegen.Program
// sharing one codegen.StringPool (the serial-merge stage), and finally
// runs the optimizer once over the whole merged program at optLevel.
//
// numWorkers bounds concurrency; a value <= 0 defaults to one worker
// per file (capped implicitly by len(paths), since a worker pool larger
// than the work queue is pointless). The first file to fail compilation
// cancels ctx so workers still queued skip their work, but files already
// in flight run to completion; Bundle still reports every diagnostic
// collected up to that point, mirroring the teacher's executor reporting
// every node's error rather than just the first one observed.
func Bundle(ctx context.Context, paths []string, optLevel int, numWorkers int) (*codegen.Program, *codegen.StringPool, hlxerr.Diagnostics, error) {
	logger := ctxlog.FromContext(ctx)
	if numWorkers <= 0 || numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	if numWorkers == 0 {
		return &codegen.Program{}, codegen.NewStringPool(), nil, nil
	}

	results := make([]fileResult, len(paths))
	jobs := make(chan int, len(paths))
	for i := range paths {
		jobs <- i
	}
	close(jobs)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	logger.Debug("bundler starting worker pool", "files", len(paths), "workers", numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				if runCtx.Err() != nil {
					results[i] = fileResult{path: paths[i], err: runCtx.Err()}
					continue
				}
				logger.Debug("compiling file", "workerID", workerID, "path", paths[i])
				r := compileFile(paths[i])
				if r.err != nil {
					logger.Error("file compilation failed", "path", paths[i], "error", r.err)
					cancel()
				}
				results[i] = r
			}
		}(w)
	}
	wg.Wait()

	mergedProg := &codegen.Program{}
	mergedPool := codegen.NewStringPool()
	var allDiags hlxerr.Diagnostics
	var firstErr error
	for _, r := range results {
		allDiags = append(allDiags, r.diags...)
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		mergeInto(mergedProg, mergedPool, r.prog, r.pool)
	}
	if firstErr != nil {
		return nil, nil, allDiags, firstErr
	}

	codegen.Optimize(mergedProg, mergedPool, optLevel)
	return mergedProg, mergedPool, allDiags, nil
}

// mergeInto appends src's declarations onto dst, re-interning every
// string src's pool holds into dst's pool and rewriting every IR
// expression's string-pool ids to match. Declaration order across files
// is simply concatenation in Bundle's call order, which is already
// input order since results are walked in slice order, not completion
// order.
func mergeInto(dst *codegen.Program, dstPool *codegen.StringPool, src *codegen.Program, srcPool *codegen.StringPool) {
	remap := make(map[uint32]uint32, srcPool.Len())
	for i, s := range srcPool.Strings() {
		remap[uint32(i)] = dstPool.Intern(s)
	}
	for _, d := range src.Decls {
		nd := &codegen.Decl{
			Kind:     d.Kind,
			SymbolID: remap[d.SymbolID],
			NameID:   remap[d.NameID],
			Name:     d.Name,
		}
		for _, p := range d.Props {
			nd.Props = append(nd.Props, codegen.Prop{
				KeyID: remap[p.KeyID],
				Key:   p.Key,
				Value: remapExpr(p.Value, remap),
			})
		}
		dst.Decls = append(dst.Decls, nd)
	}
}

func remapExpr(e codegen.Expr, remap map[uint32]uint32) codegen.Expr {
	switch n := e.(type) {
	case codegen.NullExpr, codegen.BoolExpr, codegen.NumberExpr, codegen.DurationExpr:
		return n
	case codegen.StringExpr:
		return codegen.StringExpr{ID: remap[n.ID]}
	case codegen.ArrayExpr:
		elems := make([]codegen.Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = remapExpr(el, remap)
		}
		return codegen.ArrayExpr{Elements: elems}
	case codegen.ObjectExpr:
		fields := make([]codegen.ObjectField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = codegen.ObjectField{KeyID: remap[f.KeyID], Value: remapExpr(f.Value, remap)}
		}
		return codegen.ObjectExpr{Fields: fields}
	case codegen.VariableExpr:
		return codegen.VariableExpr{NameID: remap[n.NameID], Lazy: n.Lazy}
	case codegen.EnvRefExpr:
		var def codegen.Expr
		if n.Default != nil {
			def = remapExpr(n.Default, remap)
		}
		return codegen.EnvRefExpr{NameID: remap[n.NameID], Default: def}
	case codegen.BinaryExpr:
		return codegen.BinaryExpr{Op: n.Op, Left: remapExpr(n.Left, remap), Right: remapExpr(n.Right, remap)}
	case codegen.AtCallExpr:
		pos := make([]codegen.Expr, len(n.Positional))
		for i, p := range n.Positional {
			pos[i] = remapExpr(p, remap)
		}
		named := make([]codegen.NamedArg, len(n.Named))
		for i, a := range n.Named {
			named[i] = codegen.NamedArg{NameID: remap[a.NameID], Value: remapExpr(a.Value, remap)}
		}
		out := codegen.AtCallExpr{NameID: remap[n.NameID], HasMember: n.HasMember, Positional: pos, Named: named}
		if n.HasMember {
			out.MemberID = remap[n.MemberID]
		}
		return out
	default:
		return n
	}
}
