// Package testutil holds fixtures shared by unit and integration tests.
package testutil

import (
	"fmt"

	"news_notifier/internal/domain"
)

// Post returns a feed post with deterministic field values for id. Raw is
// populated so the post compares equal after a save and load.
func Post(id string, category string) domain.Post {
	post := domain.Post{
		ID:             domain.PostID(id),
		Name:           fmt.Sprintf("Post %s", id),
		Summary:        fmt.Sprintf("Summary of post %s", id),
		Category:       category,
		LiveDate:       "2024-05-01T14:00:00Z",
		ImageThumbnail: fmt.Sprintf("/maplestory/cms/%s.png", id),
	}
	return post.WithRecord()
}

// Posts returns one "general" post per id.
func Posts(ids ...string) []domain.Post {
	posts := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, Post(id, "general"))
	}
	return posts
}
