package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"igarchiver/pkg/instagram"
	"igarchiver/pkg/models"
)

// NewPost builds a post from a raw timeline node using the local zone for
// its basename. The first page and every follow-up page go through here.
func NewPost(raw json.RawMessage) (models.Post, error) {
	return NewPostIn(raw, time.Local)
}

// NewPostIn is NewPost with an explicit zone
func NewPostIn(raw json.RawMessage, loc *time.Location) (models.Post, error) {
	var node instagram.Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return models.Post{}, fmt.Errorf("decode post node: %w", err)
	}

	switch {
	case node.ID == "":
		return models.Post{}, errors.New("post node: missing id")
	case node.Typename == "":
		return models.Post{}, fmt.Errorf("post %s: missing __typename", node.ID)
	case node.TakenAtTimestamp <= 0:
		return models.Post{}, fmt.Errorf("post %s: missing taken_at_timestamp", node.ID)
	}
	if err := Validate(node); err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		ID:            node.ID,
		Type:          models.PostType(node.Typename),
		Shortcode:     node.Shortcode,
		TakenAt:       node.TakenAtTimestamp,
		CreatedAt:     time.Unix(node.TakenAtTimestamp, 0).In(loc),
		Caption:       caption(node),
		OwnerID:       node.Owner.ID,
		OwnerUsername: node.Owner.Username,
		Basename:      BasenameIn(node.TakenAtTimestamp, loc),
		Media:         Resolve(node),
		Raw:           append(json.RawMessage(nil), raw...),
	}
	if post.Type == models.PostVideo {
		post.Thumbnail = thumbnail(node)
	}
	return post, nil
}

// NewPosts builds every edge of a timeline, failing on the first bad node
func NewPosts(edges []instagram.Edge, loc *time.Location) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(edges))
	for i, edge := range edges {
		post, err := NewPostIn(edge.Node, loc)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// caption is the first caption edge's text; no caption is an empty string
func caption(node instagram.Node) string {
	if len(node.Caption.Edges) == 0 {
		return ""
	}
	return node.Caption.Edges[0].Node.Text
}

func thumbnail(node instagram.Node) string {
	if node.ThumbnailSrc != "" {
		return node.ThumbnailSrc
	}
	if n := len(node.ThumbnailResources); n > 0 {
		return node.ThumbnailResources[n-1].Src
	}
	return node.DisplayURL
}
