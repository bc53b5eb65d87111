package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"fleetsim/internal/persistence/indexdb"
	persistlog "fleetsim/internal/persistence/log"
	"fleetsim/internal/sim/tasks"
	"fleetsim/internal/sim/world"
)

func main() {
	var (
		worldDir = flag.String("world_dir", "", "world data dir containing events/ (e.g. ./data/worlds/<id>)")
		fromTick = flag.Uint64("from_tick", 0, "first tick to count (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "last tick to count (inclusive, optional)")
		ship     = flag.String("ship", "", "only count events of this ship (optional)")
		withDB   = flag.Bool("index", false, "also print counts from <world_dir>/index/events.sqlite")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	files, err := persistlog.EventFiles(*worldDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no event files under", filepath.Join(*worldDir, "events"))
		os.Exit(1)
	}

	t := newTally(filter{from: *fromTick, to: *toTick, ship: tasks.EntityID(strings.TrimSpace(*ship))})
	for _, f := range files {
		if err := persistlog.ReadEvents(f, t.add); err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", filepath.Base(f), err)
			os.Exit(1)
		}
	}

	fmt.Printf("files=%d ticks=%d..%d events=%d cancels=%d refused=%d dropped=%d\n",
		len(files), t.firstTick, t.lastTick, t.events, t.cancels, t.refused, t.dropped)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSTARTED\tFINISHED\tABORTED")
	for _, k := range tasks.Kinds() {
		c := t.kinds[k]
		if c == (counts{}) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", k, c.started, c.finished, c.aborted)
	}
	_ = tw.Flush()

	if !*withDB {
		return
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(*worldDir, "index", "events.sqlite"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	byKind, err := idx.CountByKind(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "index query:", err)
		os.Exit(1)
	}
	fmt.Println("index:")
	for _, k := range tasks.Kinds() {
		if c, ok := byKind[k.String()]; ok {
			fmt.Printf("  %s started=%d finished=%d aborted=%d\n", k, c.Started, c.Finished, c.Aborted)
		}
	}
}

type filter struct {
	from, to uint64
	ship     tasks.EntityID
}

type counts struct {
	started, finished, aborted int
}

type tally struct {
	f filter

	kinds               map[tasks.Kind]counts
	firstTick, lastTick uint64
	events, cancels     int
	refused, dropped    int
	seen                bool
}

func newTally(f filter) *tally {
	return &tally{f: f, kinds: map[tasks.Kind]counts{}}
}

func (t *tally) add(e world.TickLogEntry) error {
	if e.Tick < t.f.from || (t.f.to != 0 && e.Tick > t.f.to) {
		return nil
	}
	if !t.seen {
		t.firstTick = e.Tick
		t.seen = true
	}
	t.lastTick = e.Tick
	for _, ev := range e.Events {
		if t.f.ship != "" && ev.Ship != t.f.ship {
			continue
		}
		t.events++
		t.dropped += ev.Dropped
		c := t.kinds[ev.Kind]
		switch {
		case ev.Phase == world.PhaseStarted:
			c.started++
		case ev.Outcome == world.Finished:
			c.finished++
		case ev.Outcome == world.Aborted:
			c.aborted++
		}
		t.kinds[ev.Kind] = c
	}
	for _, cr := range e.Cancels {
		if t.f.ship != "" && cr.Ship != t.f.ship {
			continue
		}
		t.cancels++
		if !cr.Applied {
			t.refused++
		}
	}
	return nil
}
