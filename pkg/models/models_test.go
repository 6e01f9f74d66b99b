package models

import (
	"encoding/json"
	"testing"

	"igarchiver/pkg/instagram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLeavesSnapshotsUntouched(t *testing.T) {
	base := Profile{ID: "1", Posts: make([]Post, 1, 8)}
	base.Posts[0] = Post{ID: "a"}
	snapshot := base

	next := base.Append([]Post{{ID: "b"}, {ID: "c"}}, PageInfo{HasNextPage: true, EndCursor: "x"})

	require.Len(t, next.Posts, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(next.Posts))
	assert.Equal(t, "x", next.PageInfo.EndCursor)

	// spare capacity in the old slice must not be written through
	assert.Len(t, snapshot.Posts, 1)
	assert.Equal(t, "", snapshot.Posts[:2][1].ID)
	assert.False(t, snapshot.PageInfo.HasNextPage)

	next.Posts[0].ID = "changed"
	assert.Equal(t, "a", snapshot.Posts[0].ID)
}

func TestAppendEmptyBatchStillAdvancesCursor(t *testing.T) {
	p := Profile{PageInfo: PageInfo{HasNextPage: true, EndCursor: "1"}}
	next := p.Append(nil, PageInfo{HasNextPage: false})

	assert.Empty(t, next.Posts)
	assert.False(t, next.PageInfo.HasNextPage)
	assert.True(t, p.PageInfo.HasNextPage)
}

func TestDescriptionJSON(t *testing.T) {
	p := Profile{
		ID:        "42",
		Username:  "someone",
		FullName:  "Some One",
		Followers: 10,
		Followees: 3,
		Biography: "line1\nline2 & more",
	}

	data, err := json.Marshal(p.Description())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","username":"someone","full_name":"Some One","followers":10,"followees":3,"biography":"line1\nline2 & more"}`, string(data))
}

func TestPostTypeKnown(t *testing.T) {
	assert.True(t, PostImage.Known())
	assert.True(t, PostVideo.Known())
	assert.True(t, PostSidecar.Known())
	assert.False(t, PostType("GraphReel").Known())
}

func TestPageInfoFrom(t *testing.T) {
	got := PageInfoFrom(instagram.PageInfo{HasNextPage: true, EndCursor: "QVFD"})
	assert.Equal(t, PageInfo{HasNextPage: true, EndCursor: "QVFD"}, got)
}

func ids(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
