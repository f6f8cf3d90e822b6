package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppiankov/infodemic/internal/catalog"
	"github.com/ppiankov/infodemic/internal/model"
)

// SeedCatalog upserts the catalog. Cooldown timestamps and outlet progress
// of existing rows are left untouched.
func (s *Store) SeedCatalog(ctx context.Context, c *catalog.Catalog) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("catalog is required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		tagIDs := make(map[string]int64)
		tagID := func(name string) (int64, error) {
			if id, ok := tagIDs[name]; ok {
				return id, nil
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
				return 0, fmt.Errorf("insert tag %s: %w", name, err)
			}
			var id int64
			if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
				return 0, fmt.Errorf("lookup tag %s: %w", name, err)
			}
			tagIDs[name] = id
			return id, nil
		}
		for _, t := range c.Tags {
			if _, err := tagID(t); err != nil {
				return err
			}
		}

		biasIDs := make(map[string]int64)
		for _, b := range c.Biases {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO biases (name) VALUES (?)`, b.Name); err != nil {
				return fmt.Errorf("insert bias %s: %w", b.Name, err)
			}
			var id int64
			if err := tx.QueryRowContext(ctx, `SELECT id FROM biases WHERE name = ?`, b.Name).Scan(&id); err != nil {
				return fmt.Errorf("lookup bias %s: %w", b.Name, err)
			}
			biasIDs[b.Name] = id
			if _, err := tx.ExecContext(ctx, `DELETE FROM bias_tags WHERE bias_id = ?`, id); err != nil {
				return fmt.Errorf("reset bias tags: %w", err)
			}
			for _, t := range b.Tags {
				tid, err := tagID(t)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO bias_tags (bias_id, tag_id) VALUES (?, ?)`, id, tid); err != nil {
					return fmt.Errorf("link bias tag: %w", err)
				}
			}
		}

		orgByName := make(map[string]int64)
		for _, o := range c.Organizations {
			orgByName[o.Name] = o.ID
			_, err := tx.ExecContext(ctx,
				`INSERT INTO organizations (id, name, org_type, description, credibility, tier)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   name = excluded.name,
				   org_type = excluded.org_type,
				   description = excluded.description,
				   credibility = excluded.credibility,
				   tier = excluded.tier`,
				o.ID, o.Name, o.Type, o.Description, model.ClampCredibility(o.Credibility), o.Tier)
			if err != nil {
				return fmt.Errorf("upsert organization %s: %w", o.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM organization_tags WHERE organization_id = ?`, o.ID); err != nil {
				return fmt.Errorf("reset organization tags: %w", err)
			}
			for _, t := range o.Tags {
				tid, err := tagID(t)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO organization_tags (organization_id, tag_id) VALUES (?, ?)`, o.ID, tid); err != nil {
					return fmt.Errorf("link organization tag: %w", err)
				}
			}
		}

		for _, ch := range c.Characters {
			var affiliation sql.NullInt64
			if id, ok := orgByName[ch.Affiliation]; ok {
				affiliation = sql.NullInt64{Int64: id, Valid: true}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO characters (id, name, profession, affiliation_id, social_handle, credibility, tier)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   name = excluded.name,
				   profession = excluded.profession,
				   affiliation_id = excluded.affiliation_id,
				   social_handle = excluded.social_handle,
				   credibility = excluded.credibility,
				   tier = excluded.tier`,
				ch.ID, ch.Name, ch.Profession, affiliation, ch.SocialHandle, model.ClampCredibility(ch.Credibility), ch.Tier)
			if err != nil {
				return fmt.Errorf("upsert character %s: %w", ch.Name, err)
			}
			for _, q := range []string{
				`DELETE FROM character_biases WHERE character_id = ?`,
				`DELETE FROM character_tags WHERE character_id = ?`,
			} {
				if _, err := tx.ExecContext(ctx, q, ch.ID); err != nil {
					return fmt.Errorf("reset character links: %w", err)
				}
			}
			for _, b := range ch.Biases {
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO character_biases (character_id, bias_id) VALUES (?, ?)`, ch.ID, biasIDs[b]); err != nil {
					return fmt.Errorf("link character bias: %w", err)
				}
			}
			for _, t := range ch.Tags {
				tid, err := tagID(t)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO character_tags (character_id, tag_id) VALUES (?, ?)`, ch.ID, tid); err != nil {
					return fmt.Errorf("link character tag: %w", err)
				}
			}
		}

		for _, et := range c.EventTypes {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO event_types (id, name, description) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
				et.ID, et.Name, et.Description)
			if err != nil {
				return fmt.Errorf("upsert event type %s: %w", et.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM event_type_tags WHERE event_type_id = ?`, et.ID); err != nil {
				return fmt.Errorf("reset event type tags: %w", err)
			}
			for _, t := range et.Tags {
				tid, err := tagID(t)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO event_type_tags (event_type_id, tag_id) VALUES (?, ?)`, et.ID, tid); err != nil {
					return fmt.Errorf("link event type tag: %w", err)
				}
			}
		}

		for _, o := range c.Outlets {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO media (id, name, description, readers, credibility) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
				o.ID, o.Name, o.Description, o.Readers, model.ClampCredibility(o.Credibility))
			if err != nil {
				return fmt.Errorf("upsert outlet %s: %w", o.Name, err)
			}
		}

		return nil
	})
}

// GetEventType returns one event type with its tags.
func (s *Store) GetEventType(ctx context.Context, id int64) (model.EventType, error) {
	if err := s.ready(ctx); err != nil {
		return model.EventType{}, err
	}

	var et model.EventType
	var lastUsed sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, description, last_used_at FROM event_types WHERE id = ?`, id,
	).Scan(&et.ID, &et.Name, &et.Description, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EventType{}, ErrNotFound
	}
	if err != nil {
		return model.EventType{}, fmt.Errorf("get event type: %w", err)
	}
	et.LastUsedAt = nullableTime(lastUsed)

	et.Tags, err = s.strings(ctx,
		`SELECT t.name FROM tags t
		   JOIN event_type_tags ett ON ett.tag_id = t.id
		  WHERE ett.event_type_id = ?
		  ORDER BY t.id`, id)
	if err != nil {
		return model.EventType{}, fmt.Errorf("get event type tags: %w", err)
	}
	return et, nil
}

// ListEventTypes returns all event types in id order, without tags.
func (s *Store) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, description, last_used_at FROM event_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var types []model.EventType
	for rows.Next() {
		var et model.EventType
		var lastUsed sql.NullInt64
		if err := rows.Scan(&et.ID, &et.Name, &et.Description, &lastUsed); err != nil {
			return nil, fmt.Errorf("list event types: %w", err)
		}
		et.LastUsedAt = nullableTime(lastUsed)
		types = append(types, et)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return types, nil
}

// PickEventType returns the least recently used event type (never used first, then id order).
func (s *Store) PickEventType(ctx context.Context) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var id int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id FROM event_types ORDER BY COALESCE(last_used_at, 0), id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("pick event type: %w", err)
	}
	return id, nil
}

const organizationColumns = `o.id, o.name, o.org_type, o.description, o.credibility, o.tier, o.last_used_at`

const characterColumns = `c.id, c.name, c.profession, COALESCE(a.name, ''), c.social_handle, c.credibility, c.tier, c.last_used_at`

// RelevantOrganizations returns organizations sharing a tag with the event type, in id order.
func (s *Store) RelevantOrganizations(ctx context.Context, eventTypeID int64) ([]model.Actor, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+organizationColumns+`
		   FROM organizations o
		  WHERE EXISTS (
		        SELECT 1 FROM organization_tags ot
		          JOIN event_type_tags ett ON ett.tag_id = ot.tag_id
		         WHERE ot.organization_id = o.id AND ett.event_type_id = ?)
		  ORDER BY o.id`, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("relevant organizations: %w", err)
	}
	defer rows.Close()

	var actors []model.Actor
	for rows.Next() {
		a, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("relevant organizations: %w", err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("relevant organizations: %w", err)
	}
	return actors, nil
}

// RelevantCharacters returns characters sharing a tag with the event type,
// directly or through one of their biases, in id order. Biases are not loaded.
func (s *Store) RelevantCharacters(ctx context.Context, eventTypeID int64) ([]model.Actor, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+characterColumns+`
		   FROM characters c
		   LEFT JOIN organizations a ON a.id = c.affiliation_id
		  WHERE EXISTS (
		        SELECT 1 FROM character_biases cb
		          JOIN bias_tags bt ON bt.bias_id = cb.bias_id
		          JOIN event_type_tags ett ON ett.tag_id = bt.tag_id
		         WHERE cb.character_id = c.id AND ett.event_type_id = ?)
		     OR EXISTS (
		        SELECT 1 FROM character_tags ct
		          JOIN event_type_tags ett ON ett.tag_id = ct.tag_id
		         WHERE ct.character_id = c.id AND ett.event_type_id = ?)
		  ORDER BY c.id`, eventTypeID, eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("relevant characters: %w", err)
	}
	defer rows.Close()

	var actors []model.Actor
	for rows.Next() {
		a, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("relevant characters: %w", err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("relevant characters: %w", err)
	}
	return actors, nil
}

// CharacterBiases returns the bias labels of a character in id order.
func (s *Store) CharacterBiases(ctx context.Context, characterID int64) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	biases, err := s.strings(ctx,
		`SELECT b.name FROM biases b
		   JOIN character_biases cb ON cb.bias_id = b.id
		  WHERE cb.character_id = ?
		  ORDER BY b.id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("character biases: %w", err)
	}
	return biases, nil
}

// FindActor resolves an attribution to the actor it names.
func (s *Store) FindActor(ctx context.Context, source model.Attribution) (model.Actor, error) {
	if err := s.ready(ctx); err != nil {
		return model.Actor{}, err
	}
	if source.IsZero() {
		return model.Actor{}, ErrNoAttribution
	}

	var row *sql.Row
	var scan func(rowScanner) (model.Actor, error)
	switch source.Kind() {
	case model.KindOrganization:
		row = s.sqlDB.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations o WHERE o.id = ?`, source.ID())
		scan = scanOrganization
	default:
		row = s.sqlDB.QueryRowContext(ctx,
			`SELECT `+characterColumns+`
			   FROM characters c LEFT JOIN organizations a ON a.id = c.affiliation_id
			  WHERE c.id = ?`, source.ID())
		scan = scanCharacter
	}

	actor, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Actor{}, ErrNotFound
	}
	if err != nil {
		return model.Actor{}, fmt.Errorf("find actor %s: %w", source, err)
	}
	if actor.Kind == model.KindCharacter {
		if actor.Biases, err = s.CharacterBiases(ctx, actor.ID); err != nil {
			return model.Actor{}, err
		}
	}
	return actor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (model.Actor, error) {
	a := model.Actor{Kind: model.KindOrganization}
	var lastUsed sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &a.Role, &a.Description, &a.Credibility, &a.Tier, &lastUsed); err != nil {
		return model.Actor{}, err
	}
	a.LastUsedAt = nullableTime(lastUsed)
	return a, nil
}

func scanCharacter(row rowScanner) (model.Actor, error) {
	a := model.Actor{Kind: model.KindCharacter}
	var lastUsed sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &a.Role, &a.Affiliation, &a.SocialHandle, &a.Credibility, &a.Tier, &lastUsed); err != nil {
		return model.Actor{}, err
	}
	a.LastUsedAt = nullableTime(lastUsed)
	return a, nil
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
