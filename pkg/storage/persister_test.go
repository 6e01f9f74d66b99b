package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"igarchiver/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost(id, basename string) models.Post {
	return models.Post{
		ID:       id,
		Basename: basename,
		Caption:  "caption of " + id,
		Raw:      json.RawMessage(`{"id":"` + id + `","__typename":"GraphImage"}`),
	}
}

func TestNewDoesNotCreateDirectory(t *testing.T) {
	base := t.TempDir()
	p := New(base, "someone", false)

	assert.Equal(t, filepath.Join(base, "someone"), p.Dir())
	_, err := p.Claim(samplePost("1", "2023-11-14_22-13-20"))
	require.NoError(t, err)

	_, err = os.Stat(p.Dir())
	assert.True(t, os.IsNotExist(err), "directory must only appear on first write")
}

func TestClaimCollision(t *testing.T) {
	p := New(t.TempDir(), "someone", false)
	const same = "2023-11-14_22-13-20"

	first, err := p.Claim(samplePost("100", same))
	require.NoError(t, err)
	second, err := p.Claim(samplePost("200", same))
	require.NoError(t, err)
	again, err := p.Claim(samplePost("100", same))
	require.NoError(t, err)

	assert.Equal(t, same, first)
	assert.Equal(t, same+"_200", second)
	assert.Equal(t, first, again)

	require.NoError(t, p.SavePostMeta(first, samplePost("100", same)))
	require.NoError(t, p.SavePostMeta(second, samplePost("200", same)))

	a, err := os.ReadFile(filepath.Join(p.Dir(), same+".txt"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(p.Dir(), same+"_200.txt"))
	require.NoError(t, err)
	assert.Equal(t, "caption of 100", string(a))
	assert.Equal(t, "caption of 200", string(b))
}

func TestClaimHonoursExistingArchive(t *testing.T) {
	base := t.TempDir()
	const same = "2023-11-14_22-13-20"

	earlier := New(base, "someone", false)
	name, err := earlier.Claim(samplePost("200", same))
	require.NoError(t, err)
	require.NoError(t, earlier.SavePostMeta(name, samplePost("200", same)))

	// a later run sees post 100 first but the name already belongs to 200
	later := New(base, "someone", false)
	got, err := later.Claim(samplePost("100", same))
	require.NoError(t, err)
	assert.Equal(t, same+"_100", got)

	got, err = later.Claim(samplePost("200", same))
	require.NoError(t, err)
	assert.Equal(t, same, got)
}

func TestSaveLayout(t *testing.T) {
	p := New(t.TempDir(), "someone", false)

	profile := models.Profile{ID: "42", Username: "someone", FullName: "Some One", Followers: 3, Followees: 4, Biography: "bio"}
	require.NoError(t, p.SaveDescription(profile))
	require.NoError(t, p.SaveProfilePicture([]byte("pic")))
	require.NoError(t, p.SaveAsset(AssetName("b", 0, "https://cdn/x.mp4?y=1"), strings.NewReader("video")))
	require.NoError(t, p.SaveAsset(ThumbName("b", "https://cdn/x"), strings.NewReader("thumb")))

	var desc map[string]interface{}
	data, err := os.ReadFile(filepath.Join(p.Dir(), DescriptionName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &desc))
	assert.Equal(t, map[string]interface{}{
		"id": "42", "username": "someone", "full_name": "Some One",
		"followers": float64(3), "followees": float64(4), "biography": "bio",
	}, desc)

	entries, err := os.ReadDir(p.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{DescriptionName, ProfilePicName, "b_0.mp4", "b_thumb.jpg"}, names, "no temporary files may remain")
	assert.Equal(t, 2, p.SavedCount())
}

func TestExists(t *testing.T) {
	base := t.TempDir()
	p := New(base, "someone", false)
	assert.False(t, p.Exists("a_0.jpg"))

	require.NoError(t, p.SaveAsset("a_0.jpg", strings.NewReader("x")))
	assert.True(t, p.Exists("a_0.jpg"))

	overwriting := New(base, "someone", true)
	assert.False(t, overwriting.Exists("a_0.jpg"))
}

func TestAssetNames(t *testing.T) {
	assert.Equal(t, "2023-11-14_22-13-20_0.jpg", AssetName("2023-11-14_22-13-20", 0, "https://cdn/a.jpg?x=1"))
	assert.Equal(t, "b_12.mp4", AssetName("b", 12, "https://cdn/v.mp4"))
	assert.Equal(t, "b_3.jpg", AssetName("b", 3, "https://cdn/noext"))
	assert.Equal(t, "b_thumb.jpg", ThumbName("b", "https://cdn/t.jpg"))
}
