package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news_notifier/internal/domain"
)

var ErrEmptyFeed = errors.New("feed returned no posts")

// MonitorService runs one fetch, diff, notify, persist cycle per Check call.
type MonitorService struct {
	source    Source
	snapshots SnapshotStore
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
}

func NewMonitorService(
	source Source,
	snapshots SnapshotStore,
	notifier Notifier,
	publisher Publisher,
	logger *slog.Logger,
) *MonitorService {
	return &MonitorService{
		source:    source,
		snapshots: snapshots,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
	}
}

// Check compares the current feed against the stored snapshot and notifies
// every post whose identifier has not been seen before. The snapshot is
// replaced with the fetched posts even when some deliveries fail, so each
// identifier is notified at most once.
//
// A load or fetch error aborts the cycle before anything is sent or saved.
func (s *MonitorService) Check(ctx context.Context) (*domain.CheckStats, error) {
	startTime := time.Now()
	s.logger.Info("checking for new posts", "source_name", s.source.Name())

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	posts, err := s.source.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, ErrEmptyFeed
	}

	fresh := snapshot.NewPosts(posts)

	s.logger.Info("fetched posts",
		"count", len(posts),
		"cached", len(snapshot.LastPosts),
		"new", len(fresh),
	)

	stats := &domain.CheckStats{
		Fetched: len(posts),
		New:     len(fresh),
	}

	for i := range fresh {
		post := &fresh[i]

		if err := s.notifier.Notify(ctx, post); err != nil {
			stats.Errors++
			s.logger.Error("failed to send notification",
				"post_id", post.ID,
				"name", post.Name,
				"error", err,
			)
		} else {
			stats.Notified++
			s.logger.Info("sent notification for new post",
				"post_id", post.ID,
				"name", post.Name,
				"category", post.Category,
			)
		}

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, post); err != nil {
				stats.Errors++
				s.logger.Error("failed to publish post", "post_id", post.ID, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	if err := s.snapshots.Save(ctx, posts); err != nil {
		return stats, fmt.Errorf("save snapshot: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("check completed",
		"fetched", stats.Fetched,
		"new", stats.New,
		"notified", stats.Notified,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}
