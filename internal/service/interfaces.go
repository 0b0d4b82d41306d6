package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_notifier/internal/domain"
)

type SnapshotStore interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, posts []domain.Post) error
}

type Source interface {
	ID() string
	Name() string
	FetchPosts(ctx context.Context) ([]domain.Post, error)
}

type Notifier interface {
	Notify(ctx context.Context, post *domain.Post) error
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.Post) error
	Close() error
}
