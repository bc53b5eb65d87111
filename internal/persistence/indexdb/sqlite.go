package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"fleetsim/internal/sim/tuning"
	"fleetsim/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of task lifecycle events.
// Writes are queued and applied by one goroutine in batched transactions;
// the JSONL event logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTicks atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqSync
)

type req struct {
	kind reqKind

	tick world.TickLogEntry
	done chan struct{}
}

type Stats struct {
	DropTickTotal uint64
	QueueDepth    int
	QueueCapacity int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			world TEXT NOT NULL,
			tick INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			events INTEGER NOT NULL,
			cancels INTEGER NOT NULL,
			signals INTEGER NOT NULL,
			step_ms REAL NOT NULL,
			PRIMARY KEY (world, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS task_events (
			world TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			ship TEXT NOT NULL,
			task_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			phase TEXT NOT NULL,
			outcome TEXT,
			reason TEXT,
			dropped INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			record_json TEXT,
			PRIMARY KEY (world, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_events_ship_tick ON task_events(ship, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_task_events_kind ON task_events(kind, phase, outcome);`,
		`CREATE TABLE IF NOT EXISTS cancels (
			world TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			ship TEXT NOT NULL,
			task_id TEXT,
			active INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			reason TEXT,
			PRIMARY KEY (world, tick, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues a tick for indexing. Ticks without events are skipped, and
// a full queue drops the tick rather than stalling the world loop.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	if len(entry.Events) == 0 && len(entry.Cancels) == 0 {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTicks.Add(1)
	}
	return nil
}

// Sync blocks until everything queued before it is committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		DropTickTotal: s.dropTicks.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// UpsertTuning stores the tuning a run actually applies.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range map[string]string{
		"schema_version": "1",
		"tuning":         string(b),
		"tuning_digest":  hex.EncodeToString(sum[:]),
		"updated_at":     time.Now().UTC().Format(time.RFC3339Nano),
	} {
		if _, err := stmt.Exec(k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(world,tick,at_ms,events,cancels,signals,step_ms) VALUES(?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO task_events(world,tick,seq,ship,task_id,kind,phase,outcome,reason,dropped,at_ms,record_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertCancel, _ := s.db.Prepare(`INSERT OR REPLACE INTO cancels(world,tick,seq,ship,task_id,active,applied,reason) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertEvent, insertCancel} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		if err := s.insertTick(tx, r.tick, insertTick, insertEvent, insertCancel, &opCount); err != nil {
			rollback()
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func (s *SQLiteIndex) insertTick(tx *sql.Tx, e world.TickLogEntry, tickStmt, eventStmt, cancelStmt *sql.Stmt, ops *int) error {
	if tickStmt == nil || eventStmt == nil || cancelStmt == nil {
		return fmt.Errorf("indexdb: statements not prepared")
	}
	tick := int64(e.Tick)
	if _, err := tx.Stmt(tickStmt).Exec(e.World, tick, int64(e.At), len(e.Events), len(e.Cancels), e.Signals, e.StepMS); err != nil {
		return err
	}
	*ops++
	for i, ev := range e.Events {
		var rec any
		if ev.Record != nil {
			b, _ := json.Marshal(ev.Record)
			rec = string(b)
		}
		var outcome any
		if ev.Phase == world.PhaseCompleted {
			outcome = ev.Outcome.String()
		}
		if _, err := tx.Stmt(eventStmt).Exec(
			e.World, tick, i,
			string(ev.Ship),
			ev.TaskID.String(),
			ev.Kind.String(),
			ev.Phase.String(),
			outcome,
			ev.Reason,
			ev.Dropped,
			int64(ev.At),
			rec,
		); err != nil {
			return err
		}
		*ops++
	}
	for i, c := range e.Cancels {
		var taskID any
		if c.TaskID != 0 {
			taskID = c.TaskID.String()
		}
		if _, err := tx.Stmt(cancelStmt).Exec(e.World, tick, i, string(c.Ship), taskID, c.Active, c.Applied, c.Reason); err != nil {
			return err
		}
		*ops++
	}
	return nil
}
