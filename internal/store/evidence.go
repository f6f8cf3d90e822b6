package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/infodemic/internal/model"
)

// EnsureFactPanels creates one panel per core truth key of the event when
// none exist yet, and returns the event's panels in key order.
func (s *Store) EnsureFactPanels(ctx context.Context, eventID int64, coreTruth model.FactMap) ([]model.FactPanel, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, key := range coreTruth.Keys() {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO fact_panels (event_id, fact_key, label, position) VALUES (?, ?, ?, ?)`,
				eventID, key, model.FactLabel(key), i)
			if err != nil {
				return fmt.Errorf("create fact panel %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ListFactPanels(ctx, eventID)
}

// ListFactPanels returns the panels of an event in position order.
func (s *Store) ListFactPanels(ctx context.Context, eventID int64) ([]model.FactPanel, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, event_id, fact_key, label, position FROM fact_panels WHERE event_id = ? ORDER BY position, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list fact panels: %w", err)
	}
	defer rows.Close()

	var panels []model.FactPanel
	for rows.Next() {
		var p model.FactPanel
		if err := rows.Scan(&p.ID, &p.EventID, &p.FactKey, &p.Label, &p.Position); err != nil {
			return nil, fmt.Errorf("list fact panels: %w", err)
		}
		panels = append(panels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fact panels: %w", err)
	}
	return panels, nil
}

// GetFactPanel returns one panel.
func (s *Store) GetFactPanel(ctx context.Context, id int64) (model.FactPanel, error) {
	if err := s.ready(ctx); err != nil {
		return model.FactPanel{}, err
	}
	var p model.FactPanel
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, event_id, fact_key, label, position FROM fact_panels WHERE id = ?`, id,
	).Scan(&p.ID, &p.EventID, &p.FactKey, &p.Label, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FactPanel{}, ErrNotFound
	}
	if err != nil {
		return model.FactPanel{}, fmt.Errorf("get fact panel: %w", err)
	}
	return p, nil
}

const selectionColumns = `id, event_id, statement_id, phrase, panel_id, approved, created_at`

// InsertSelection records a phrase selection. Selecting the same phrase of
// the same statement again returns the existing row with created false.
func (s *Store) InsertSelection(ctx context.Context, eventID, statementID int64, phrase string, now time.Time) (model.EvidenceSelection, bool, error) {
	if err := s.ready(ctx); err != nil {
		return model.EvidenceSelection{}, false, err
	}

	var created bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO evidence_selections (event_id, statement_id, phrase, created_at) VALUES (?, ?, ?, ?)`,
			eventID, statementID, phrase, toMillis(now))
		if err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
		n, _ := res.RowsAffected()
		created = n > 0
		return nil
	})
	if err != nil {
		return model.EvidenceSelection{}, false, err
	}

	sel, err := scanSelection(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+selectionColumns+` FROM evidence_selections WHERE event_id = ? AND statement_id = ? AND phrase = ?`,
		eventID, statementID, phrase))
	if err != nil {
		return model.EvidenceSelection{}, false, fmt.Errorf("reload selection: %w", err)
	}
	return sel, created, nil
}

// DeleteSelection removes a selection matching the phrase. Removing a
// missing selection is not an error; removed reports whether a row went away.
func (s *Store) DeleteSelection(ctx context.Context, eventID, statementID int64, phrase string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM evidence_selections WHERE event_id = ? AND statement_id = ? AND phrase = ?`,
		eventID, statementID, phrase)
	if err != nil {
		return false, fmt.Errorf("delete selection: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetSelection returns one selection.
func (s *Store) GetSelection(ctx context.Context, id int64) (model.EvidenceSelection, error) {
	if err := s.ready(ctx); err != nil {
		return model.EvidenceSelection{}, err
	}
	sel, err := scanSelection(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+selectionColumns+` FROM evidence_selections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.EvidenceSelection{}, ErrNotFound
	}
	if err != nil {
		return model.EvidenceSelection{}, fmt.Errorf("get selection: %w", err)
	}
	return sel, nil
}

// AssignSelection places a selection into a panel and approves it.
// The capacity check and the move happen in the same transaction; a
// selection already in the target panel is left as is.
func (s *Store) AssignSelection(ctx context.Context, selectionID, panelID int64, capacity int) (model.EvidenceSelection, error) {
	if err := s.ready(ctx); err != nil {
		return model.EvidenceSelection{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT panel_id FROM evidence_selections WHERE id = ?`, selectionID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load selection: %w", err)
		}
		if current.Valid && current.Int64 == panelID {
			return nil
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM evidence_selections WHERE panel_id = ?`, panelID).Scan(&count); err != nil {
			return fmt.Errorf("count panel: %w", err)
		}
		if count >= capacity {
			return ErrPanelFull
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE evidence_selections SET panel_id = ?, approved = 1 WHERE id = ?`, panelID, selectionID); err != nil {
			return fmt.Errorf("assign selection: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.EvidenceSelection{}, err
	}
	return s.GetSelection(ctx, selectionID)
}

// UnassignSelection moves a selection back to the unsorted pool.
func (s *Store) UnassignSelection(ctx context.Context, selectionID int64) (model.EvidenceSelection, error) {
	if err := s.ready(ctx); err != nil {
		return model.EvidenceSelection{}, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE evidence_selections SET panel_id = NULL, approved = 0 WHERE id = ?`, selectionID)
	if err != nil {
		return model.EvidenceSelection{}, fmt.Errorf("unassign selection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.EvidenceSelection{}, ErrNotFound
	}
	return s.GetSelection(ctx, selectionID)
}

// CountPanel returns the number of selections in a panel.
func (s *Store) CountPanel(ctx context.Context, panelID int64) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence_selections WHERE panel_id = ?`, panelID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count panel: %w", err)
	}
	return count, nil
}

// ListSelections returns the selections of an event in creation order.
func (s *Store) ListSelections(ctx context.Context, eventID int64) ([]model.EvidenceSelection, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+selectionColumns+` FROM evidence_selections WHERE event_id = ? ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	var selections []model.EvidenceSelection
	for rows.Next() {
		sel, err := scanSelection(rows)
		if err != nil {
			return nil, fmt.Errorf("list selections: %w", err)
		}
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

func scanSelection(row rowScanner) (model.EvidenceSelection, error) {
	var sel model.EvidenceSelection
	var panelID sql.NullInt64
	var created int64
	if err := row.Scan(&sel.ID, &sel.EventID, &sel.StatementID, &sel.Phrase, &panelID, &sel.Approved, &created); err != nil {
		return model.EvidenceSelection{}, err
	}
	if panelID.Valid {
		id := panelID.Int64
		sel.PanelID = &id
	}
	sel.CreatedAt = fromMillis(created)
	return sel, nil
}
