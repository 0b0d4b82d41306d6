// Package migrations embeds the postgres schema for the snapshot store.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS

const SnapshotPosts = "001_create_snapshot_posts.up.sql"
