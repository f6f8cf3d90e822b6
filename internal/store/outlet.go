package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ppiankov/infodemic/internal/model"
)

// GetMedia returns one outlet.
func (s *Store) GetMedia(ctx context.Context, id int64) (model.Media, error) {
	if err := s.ready(ctx); err != nil {
		return model.Media{}, err
	}
	var m model.Media
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, description, readers, credibility FROM media WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Readers, &m.Credibility)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Media{}, ErrNotFound
	}
	if err != nil {
		return model.Media{}, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// UpdateMedia writes an outlet's readers and credibility.
func (s *Store) UpdateMedia(ctx context.Context, m model.Media) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return updateMedia(ctx, s.sqlDB, m)
}

func updateMedia(ctx context.Context, db execer, m model.Media) error {
	readers := m.Readers
	if readers < 0 {
		readers = 0
	}
	res, err := db.ExecContext(ctx,
		`UPDATE media SET readers = ?, credibility = ? WHERE id = ?`,
		readers, model.ClampCredibility(m.Credibility), m.ID)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordScore stores the article, the outlet's new standing and the event's
// scored status in one transaction. The article's ID is written back.
func (s *Store) RecordScore(ctx context.Context, article *model.Article, media model.Media) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if article == nil {
		return fmt.Errorf("article is required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM events WHERE id = ?`, article.EventID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load event status: %w", err)
		}
		if model.EventStatus(status) == model.StatusScored {
			return ErrAlreadyScored
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO articles (media_id, event_id, title, content, veracity_score, verdict, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			article.MediaID, article.EventID, article.Title, article.Content,
			article.VeracityScore, article.Verdict, toMillis(article.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}

		if err := updateMedia(ctx, tx, media); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET status = ? WHERE id = ?`, string(model.StatusScored), article.EventID); err != nil {
			return fmt.Errorf("mark event scored: %w", err)
		}
		article.ID = id
		return nil
	})
}

// ListArticles returns an outlet's articles, newest first.
func (s *Store) ListArticles(ctx context.Context, mediaID int64) ([]model.Article, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, media_id, event_id, title, content, veracity_score, verdict, created_at
		   FROM articles WHERE media_id = ? ORDER BY created_at DESC, id DESC`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		var created int64
		if err := rows.Scan(&a.ID, &a.MediaID, &a.EventID, &a.Title, &a.Content, &a.VeracityScore, &a.Verdict, &created); err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		a.CreatedAt = fromMillis(created)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}
