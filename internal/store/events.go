package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/infodemic/internal/model"
)

// PersistEvent stores an event with its statements in one transaction.
// Each statement's author and the event type get their last-used timestamp
// set to now, and the event becomes the session's active event. IDs,
// timestamps and status are written back into ev and statements.
func (s *Store) PersistEvent(ctx context.Context, ev *model.Event, statements []model.Statement, now time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if ev == nil {
		return fmt.Errorf("event is required")
	}
	for _, st := range statements {
		if st.Source.IsZero() {
			return ErrNoAttribution
		}
	}

	coreTruth, err := json.Marshal(ev.CoreTruth)
	if err != nil {
		return fmt.Errorf("encode core truth: %w", err)
	}
	generated := ev.GeneratedContent
	if len(generated) == 0 {
		generated = json.RawMessage("[]")
	}
	stamp := toMillis(now)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO events (event_type_id, title, description, location, core_truth, generated_content, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.EventTypeID, ev.Title, ev.Description, ev.Location, string(coreTruth), string(generated),
			string(model.StatusPersisted), stamp)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		eventID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		for i := range statements {
			st := &statements[i]
			distortions, err := json.Marshal(nonNil(st.Distortions))
			if err != nil {
				return fmt.Errorf("encode distortions: %w", err)
			}
			var characterID, organizationID sql.NullInt64
			touch := `UPDATE characters SET last_used_at = ?, last_used_event_id = ? WHERE id = ?`
			if st.Source.Kind() == model.KindOrganization {
				organizationID = sql.NullInt64{Int64: st.Source.ID(), Valid: true}
				touch = `UPDATE organizations SET last_used_at = ?, last_used_event_id = ? WHERE id = ?`
			} else {
				characterID = sql.NullInt64{Int64: st.Source.ID(), Valid: true}
			}

			res, err := tx.ExecContext(ctx,
				`INSERT INTO statements (event_id, character_id, organization_id, content, truthful, distortions, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				eventID, characterID, organizationID, st.Content, st.Truthful, string(distortions), stamp)
			if err != nil {
				return fmt.Errorf("insert statement by %s: %w", st.Source, err)
			}
			if st.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("insert statement: %w", err)
			}
			if _, err := tx.ExecContext(ctx, touch, stamp, eventID, st.Source.ID()); err != nil {
				return fmt.Errorf("touch %s: %w", st.Source, err)
			}
			st.EventID = eventID
			st.CreatedAt = fromMillis(stamp)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE event_types SET last_used_at = ? WHERE id = ?`, stamp, ev.EventTypeID); err != nil {
			return fmt.Errorf("touch event type: %w", err)
		}
		if err := setActiveEvent(ctx, tx, eventID); err != nil {
			return err
		}

		ev.ID = eventID
		ev.Status = model.StatusPersisted
		ev.CreatedAt = fromMillis(stamp)
		ev.GeneratedContent = generated
		return nil
	})
}

// GetEvent returns one event.
func (s *Store) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	if err := s.ready(ctx); err != nil {
		return model.Event{}, err
	}

	var ev model.Event
	var coreTruth, generated, status string
	var created int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, event_type_id, title, description, location, core_truth, generated_content, status, created_at
		   FROM events WHERE id = ?`, id,
	).Scan(&ev.ID, &ev.EventTypeID, &ev.Title, &ev.Description, &ev.Location, &coreTruth, &generated, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	if err := json.Unmarshal([]byte(coreTruth), &ev.CoreTruth); err != nil {
		return model.Event{}, fmt.Errorf("decode core truth of event %d: %w", id, err)
	}
	ev.GeneratedContent = json.RawMessage(generated)
	ev.Status = model.EventStatus(status)
	ev.CreatedAt = fromMillis(created)
	return ev, nil
}

// ListEvents returns events newest first.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, event_type_id, title, description, location, core_truth, generated_content, status, created_at
		   FROM events ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var coreTruth, generated, status string
		var created int64
		if err := rows.Scan(&ev.ID, &ev.EventTypeID, &ev.Title, &ev.Description, &ev.Location, &coreTruth, &generated, &status, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(coreTruth), &ev.CoreTruth); err != nil {
			return nil, fmt.Errorf("decode core truth of event %d: %w", ev.ID, err)
		}
		ev.GeneratedContent = json.RawMessage(generated)
		ev.Status = model.EventStatus(status)
		ev.CreatedAt = fromMillis(created)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SetEventStatus moves an event to a new lifecycle status.
func (s *Store) SetEventStatus(ctx context.Context, id int64, status model.EventStatus) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE events SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const statementColumns = `id, event_id, character_id, organization_id, content, truthful, distortions, created_at`

// ListStatements returns the statements of an event in insertion order.
func (s *Store) ListStatements(ctx context.Context, eventID int64) ([]model.Statement, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var statements []model.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("list statements: %w", err)
		}
		statements = append(statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	return statements, nil
}

// GetStatement returns one statement.
func (s *Store) GetStatement(ctx context.Context, id int64) (model.Statement, error) {
	if err := s.ready(ctx); err != nil {
		return model.Statement{}, err
	}
	st, err := scanStatement(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Statement{}, ErrNotFound
	}
	if err != nil {
		return model.Statement{}, fmt.Errorf("get statement: %w", err)
	}
	return st, nil
}

// ListParticipants returns the distinct authors of an event's statements,
// organizations first, each group in id order.
func (s *Store) ListParticipants(ctx context.Context, eventID int64) ([]model.Actor, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var actors []model.Actor
	orgRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations o
		  WHERE o.id IN (SELECT organization_id FROM statements WHERE event_id = ? AND organization_id IS NOT NULL)
		  ORDER BY o.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participating organizations: %w", err)
	}
	for orgRows.Next() {
		a, err := scanOrganization(orgRows)
		if err != nil {
			_ = orgRows.Close()
			return nil, fmt.Errorf("list participating organizations: %w", err)
		}
		actors = append(actors, a)
	}
	if err := orgRows.Err(); err != nil {
		_ = orgRows.Close()
		return nil, fmt.Errorf("list participating organizations: %w", err)
	}
	_ = orgRows.Close()

	charRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters c
		   LEFT JOIN organizations a ON a.id = c.affiliation_id
		  WHERE c.id IN (SELECT character_id FROM statements WHERE event_id = ? AND character_id IS NOT NULL)
		  ORDER BY c.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participating characters: %w", err)
	}
	var characters []model.Actor
	for charRows.Next() {
		a, err := scanCharacter(charRows)
		if err != nil {
			_ = charRows.Close()
			return nil, fmt.Errorf("list participating characters: %w", err)
		}
		characters = append(characters, a)
	}
	if err := charRows.Err(); err != nil {
		_ = charRows.Close()
		return nil, fmt.Errorf("list participating characters: %w", err)
	}
	_ = charRows.Close()

	// Biases need their own query; the single connection is free once rows are closed.
	for i := range characters {
		if characters[i].Biases, err = s.CharacterBiases(ctx, characters[i].ID); err != nil {
			return nil, err
		}
	}
	return append(actors, characters...), nil
}

func scanStatement(row rowScanner) (model.Statement, error) {
	var st model.Statement
	var characterID, organizationID sql.NullInt64
	var distortions string
	var created int64
	if err := row.Scan(&st.ID, &st.EventID, &characterID, &organizationID, &st.Content, &st.Truthful, &distortions, &created); err != nil {
		return model.Statement{}, err
	}
	switch {
	case organizationID.Valid:
		st.Source = model.OrganizationSource(organizationID.Int64)
	case characterID.Valid:
		st.Source = model.CharacterSource(characterID.Int64)
	default:
		return model.Statement{}, ErrNoAttribution
	}
	if err := json.Unmarshal([]byte(distortions), &st.Distortions); err != nil {
		return model.Statement{}, fmt.Errorf("decode distortions: %w", err)
	}
	st.CreatedAt = fromMillis(created)
	return st, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
