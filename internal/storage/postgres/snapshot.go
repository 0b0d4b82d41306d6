package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_notifier/internal/domain"
	"news_notifier/migrations"
)

// SnapshotStore keeps the last fetched posts in the snapshot_posts table, one
// row per fetched record in feed order. Records with duplicate IDs are kept.
type SnapshotStore struct {
	db *sqlx.DB
	tx *txManager
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db, tx: &txManager{db: db}}
}

// Init applies the snapshot schema. An empty table is an empty snapshot.
func (s *SnapshotStore) Init(ctx context.Context) error {
	schema, err := migrations.FS.ReadFile(migrations.SnapshotPosts)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var records []string
	query := `SELECT record FROM snapshot_posts ORDER BY sort_order`
	if err := sqlx.SelectContext(ctx, executor(ctx, s.db), &records, query); err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}

	posts := make([]domain.Post, len(records))
	for i, record := range records {
		if err := json.Unmarshal([]byte(record), &posts[i]); err != nil {
			return nil, fmt.Errorf("decode post at %d: %w", i, err)
		}
	}

	return &domain.Snapshot{LastPosts: posts}, nil
}

// Save replaces the whole snapshot in a single transaction.
func (s *SnapshotStore) Save(ctx context.Context, posts []domain.Post) error {
	return s.tx.withTransaction(ctx, func(txCtx context.Context) error {
		exec := executor(txCtx, s.db)

		if _, err := exec.ExecContext(txCtx, "DELETE FROM snapshot_posts"); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}

		query := `
			INSERT INTO snapshot_posts (
				sort_order, post_id, name, summary, category, live_date, image_thumbnail, record
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8
			)`

		for i, p := range posts {
			record, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode post %s: %w", p.ID, err)
			}

			_, err = exec.ExecContext(txCtx, query,
				i,
				p.ID.String(),
				p.Name,
				p.Summary,
				p.Category,
				p.LiveDate,
				p.ImageThumbnail,
				string(record),
			)
			if err != nil {
				return fmt.Errorf("insert post %s: %w", p.ID, err)
			}
		}

		return nil
	})
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
