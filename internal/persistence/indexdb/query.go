package indexdb

import (
	"context"
	"database/sql"
)

type KindCounts struct {
	Started  int
	Finished int
	Aborted  int
}

// CountByKind summarizes lifecycle events per task kind.
func (s *SQLiteIndex) CountByKind(ctx context.Context) (map[string]KindCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind,
			SUM(CASE WHEN phase = 'STARTED' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'FINISHED' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'ABORTED' THEN 1 ELSE 0 END)
		FROM task_events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]KindCounts{}
	for rows.Next() {
		var kind string
		var c KindCounts
		if err := rows.Scan(&kind, &c.Started, &c.Finished, &c.Aborted); err != nil {
			return nil, err
		}
		out[kind] = c
	}
	return out, rows.Err()
}

type ShipEvent struct {
	Tick    uint64
	TaskID  string
	Kind    string
	Phase   string
	Outcome string
	Reason  string
}

// ShipHistory returns the latest limit events of one ship, newest first.
func (s *SQLiteIndex) ShipHistory(ctx context.Context, ship string, limit int) ([]ShipEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, task_id, kind, phase, outcome, reason
		FROM task_events WHERE ship = ?
		ORDER BY tick DESC, seq DESC LIMIT ?`, ship, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShipEvent
	for rows.Next() {
		var e ShipEvent
		var tick int64
		var outcome, reason sql.NullString
		if err := rows.Scan(&tick, &e.TaskID, &e.Kind, &e.Phase, &outcome, &reason); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		e.Outcome = outcome.String
		e.Reason = reason.String
		out = append(out, e)
	}
	return out, rows.Err()
}
