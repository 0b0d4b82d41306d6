//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"news_notifier/internal/domain"
	"news_notifier/internal/testutil"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
	store     *SnapshotStore
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	s.store = NewSnapshotStore(db)
	s.Require().NoError(s.store.Init(s.ctx))
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM snapshot_posts")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_InitIsIdempotent() {
	s.NoError(s.store.Init(s.ctx))
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_LoadEmpty() {
	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Empty(snapshot.LastPosts)
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_SaveAndLoad() {
	posts := []domain.Post{
		testutil.Post("3", "update"),
		testutil.Post("1", "events"),
		testutil.Post("evt-2", "sale"),
		testutil.Post("1", "update"),
	}

	s.Require().NoError(s.store.Save(s.ctx, posts))

	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Equal(posts, snapshot.LastPosts)
	s.Len(snapshot.LastPosts, 4)
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_KeepsFullFeedRecord() {
	feed := `[{"id": "007", "name": "Sale", "summary": "", "category": "sale", "liveDate": "2024-05-01",
		"imageThumbnail": "/s.png", "slug": "spring-sale", "tags": ["cash", "shop"]}]`

	var posts []domain.Post
	s.Require().NoError(json.Unmarshal([]byte(feed), &posts))
	s.Require().NoError(s.store.Save(s.ctx, posts))

	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Equal(posts, snapshot.LastPosts)
	s.Equal(domain.PostID("007"), snapshot.LastPosts[0].ID)

	var slug string
	err = s.db.GetContext(s.ctx, &slug, "SELECT record->>'slug' FROM snapshot_posts WHERE post_id = $1", "007")
	s.NoError(err)
	s.Equal("spring-sale", slug)
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_SaveReplaces() {
	s.Require().NoError(s.store.Save(s.ctx, testutil.Posts("1", "2")))
	s.Require().NoError(s.store.Save(s.ctx, testutil.Posts("3")))

	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Equal(testutil.Posts("3"), snapshot.LastPosts)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM snapshot_posts")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestSnapshotStore_SaveEmpty() {
	s.Require().NoError(s.store.Save(s.ctx, testutil.Posts("1")))
	s.Require().NoError(s.store.Save(s.ctx, nil))

	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Empty(snapshot.LastPosts)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	s.Require().NoError(s.store.Save(s.ctx, testutil.Posts("1")))

	tm := &txManager{db: s.db}
	err := tm.withTransaction(s.ctx, func(txCtx context.Context) error {
		_, err := executor(txCtx, s.db).ExecContext(txCtx, "DELETE FROM snapshot_posts")
		s.Require().NoError(err)
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	snapshot, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Equal(testutil.Posts("1"), snapshot.LastPosts)
}
