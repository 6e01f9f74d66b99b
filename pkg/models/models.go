package models

import (
	"encoding/json"
	"time"

	"igarchiver/pkg/instagram"
)

// PostType is the __typename tag of a post node
type PostType string

const (
	PostImage   PostType = "GraphImage"
	PostVideo   PostType = "GraphVideo"
	PostSidecar PostType = "GraphSidecar"
)

// Known reports whether the resolver understands this post type
func (t PostType) Known() bool {
	return t == PostImage || t == PostVideo || t == PostSidecar
}

// Role tells a primary asset apart from a video's preview image
type Role string

const (
	RolePrimary   Role = "primary"
	RoleThumbnail Role = "thumbnail"
)

// MediaAsset is one downloadable URL. Its position in Post.Media is the
// filename index.
type MediaAsset struct {
	URL  string `json:"url"`
	Role Role   `json:"role"`
}

// PageInfo is the opaque continuation cursor
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// PageInfoFrom converts the wire cursor
func PageInfoFrom(p instagram.PageInfo) PageInfo {
	return PageInfo{HasNextPage: p.HasNextPage, EndCursor: p.EndCursor}
}

// Post is an immutable post value. Raw is the node exactly as received.
type Post struct {
	ID            string
	Type          PostType
	Shortcode     string
	TakenAt       int64
	CreatedAt     time.Time
	Caption       string
	OwnerID       string
	OwnerUsername string
	Basename      string
	Media         []MediaAsset
	// Thumbnail is the preview image of a single-video post; sidecar
	// thumbnails are part of Media instead
	Thumbnail string
	Raw       json.RawMessage
}

// Profile is one account and the posts collected for it so far
type Profile struct {
	ID            string
	Username      string
	FullName      string
	Biography     string
	ProfilePicURL string
	Followers     int
	Followees     int
	IsPrivate     bool
	// PostCount is the total the remote reports, not len(Posts)
	PostCount int
	Posts     []Post
	PageInfo  PageInfo
}

// Append returns a copy of p with batch added after the existing posts.
// The copy gets a fresh slice, so p and any earlier snapshot keep their view.
func (p Profile) Append(batch []Post, cursor PageInfo) Profile {
	posts := make([]Post, 0, len(p.Posts)+len(batch))
	posts = append(posts, p.Posts...)
	posts = append(posts, batch...)

	p.Posts = posts
	p.PageInfo = cursor
	return p
}

// Description is the persisted metadata document of a profile
type Description struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Followers int    `json:"followers"`
	Followees int    `json:"followees"`
	Biography string `json:"biography"`
}

// Description returns the metadata written to description.json
func (p Profile) Description() Description {
	return Description{
		ID:        p.ID,
		Username:  p.Username,
		FullName:  p.FullName,
		Followers: p.Followers,
		Followees: p.Followees,
		Biography: p.Biography,
	}
}
