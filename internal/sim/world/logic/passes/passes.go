// Package passes runs one update routine over many ships in parallel.
//
// Items are split into contiguous chunks, one per worker. Every worker appends
// into its own buffer, and the buffers are concatenated once all workers have
// returned, so nothing is shared while the pass runs.
package passes

import "golang.org/x/sync/errgroup"

// Run calls fn for every item with at most workers goroutines and returns the
// outputs for which fn reported true. Output order follows chunk order, not
// completion order.
func Run[In, Out any](items []In, workers int, fn func(In) (Out, bool)) []Out {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers == 1 {
		return collect(items, fn)
	}

	chunk := (len(items) + workers - 1) / workers
	bufs := make([][]Out, workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(items) {
			break
		}
		hi := min(lo+chunk, len(items))
		g.Go(func() error {
			bufs[w] = collect(items[lo:hi], fn)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	if n == 0 {
		return nil
	}
	out := make([]Out, 0, n)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out
}

func collect[In, Out any](items []In, fn func(In) (Out, bool)) []Out {
	var local []Out
	for _, it := range items {
		if out, ok := fn(it); ok {
			local = append(local, out)
		}
	}
	return local
}
