package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UrgentCategory marks posts that warrant a broadcast mention.
const UrgentCategory = "update"

// PostID is the feed's identifier for a post. The feed sends numbers, but
// string identifiers are accepted as well. Two IDs are equal when their
// canonical text is equal.
type PostID string

func (id *PostID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("post id: empty value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("post id: %w", err)
		}
		*id = PostID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	*id = PostID(n.String())
	return nil
}

// MarshalJSON writes IDs that are valid JSON numbers as bare numbers and
// everything else, such as "007" or "+5", as strings.
func (id PostID) MarshalJSON() ([]byte, error) {
	if isJSONNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

func (id PostID) String() string {
	return string(id)
}

// Post is a single record of the news feed. The typed fields drive diffing
// and formatting; Raw keeps the record exactly as the feed sent it so that
// fields this program does not know about survive persistence.
type Post struct {
	ID             PostID `json:"id"`
	Name           string `json:"name"`
	Summary        string `json:"summary"`
	Category       string `json:"category"`
	LiveDate       string `json:"liveDate"`
	ImageThumbnail string `json:"imageThumbnail"`

	Raw json.RawMessage `json:"-"`
}

type postFields Post

func (p *Post) UnmarshalJSON(data []byte) error {
	var fields postFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, data); err != nil {
		return err
	}

	*p = Post(fields)
	p.Raw = raw.Bytes()
	return nil
}

// MarshalJSON returns the original feed record when there is one.
func (p Post) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(postFields(p))
}

// WithRecord returns a copy of p whose Raw holds its own encoding, for posts
// that were built in code rather than decoded from the feed.
func (p Post) WithRecord() Post {
	if len(p.Raw) == 0 {
		p.Raw, _ = json.Marshal(postFields(p))
	}
	return p
}

// IsUrgent reports whether the post belongs to the broadcast category.
func (p Post) IsUrgent() bool {
	return p.Category == UrgentCategory
}

// Snapshot is the full result of the last successful fetch.
type Snapshot struct {
	LastPosts []Post `json:"last_posts"`
}

// IDs returns the set of identifiers contained in the snapshot.
func (s Snapshot) IDs() map[PostID]struct{} {
	ids := make(map[PostID]struct{}, len(s.LastPosts))
	for _, p := range s.LastPosts {
		ids[p.ID] = struct{}{}
	}
	return ids
}

// NewPosts returns the posts whose identifiers are absent from the snapshot,
// in the order they were fetched.
func (s Snapshot) NewPosts(fetched []Post) []Post {
	seen := s.IDs()

	var fresh []Post
	for _, p := range fetched {
		if _, ok := seen[p.ID]; !ok {
			fresh = append(fresh, p)
		}
	}
	return fresh
}
