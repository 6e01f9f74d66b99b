package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/extract"
	"igarchiver/pkg/logger"
	"igarchiver/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileHTML(hasNext bool, ids ...string) string {
	nodes := make([]string, len(ids))
	for i, id := range ids {
		nodes[i] = fmt.Sprintf(`{"node":{"__typename":"GraphImage","id":%q,"display_url":"https://cdn/%s.jpg","taken_at_timestamp":%d}}`, id, id, 1700000000+i)
	}
	return fmt.Sprintf(`<html><script>window._sharedData = {"user":{"id":"42","username":"someone","full_name":"Some One","biography":"","edge_followed_by":{"count":5},"edge_follow":{"count":6},"edge_felix_video_timeline":{"edges":[]},"edge_owner_to_timeline_media":{"count":30,"page_info":{"has_next_page":%t,"end_cursor":"c1"},"edges":[%s]},"edge_saved_media":{"edges":[]}}};</script></html>`,
		hasNext, strings.Join(nodes, ","))
}

func post(id string) models.Post {
	return models.Post{ID: id, Type: models.PostImage}
}

type step struct {
	posts []models.Post
	next  models.PageInfo
	err   error
}

type scriptedWalker struct {
	steps   []step
	cursors []models.PageInfo
}

func (w *scriptedWalker) NextPage(ctx context.Context, profileID string, cursor models.PageInfo) ([]models.Post, models.PageInfo, error) {
	w.cursors = append(w.cursors, cursor)
	if len(w.steps) == 0 {
		return nil, cursor, errors.New("unexpected call")
	}
	s := w.steps[0]
	if len(w.steps) > 1 {
		w.steps = w.steps[1:]
	}
	return s.posts, s.next, s.err
}

func newAggregator(t *testing.T, walker PageWalker) *Aggregator {
	t.Helper()
	e, err := extract.New(config.DefaultConfig().Extraction)
	require.NoError(t, err)
	return New(e.WithLocation(time.UTC), walker, nil, "", logger.NewNopLogger())
}

func TestBuildInitial(t *testing.T) {
	agg := newAggregator(t, &scriptedWalker{})

	profile, err := agg.BuildInitial(profileHTML(true, "1", "2"))
	require.NoError(t, err)

	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "someone", profile.Username)
	assert.Equal(t, 5, profile.Followers)
	assert.Equal(t, 6, profile.Followees)
	assert.Equal(t, 30, profile.PostCount)
	assert.Len(t, profile.Posts, 2)
	assert.Equal(t, models.PageInfo{HasNextPage: true, EndCursor: "c1"}, agg.Cursor())
	assert.Equal(t, profile, agg.Snapshot())
}

func TestBuildInitialTwice(t *testing.T) {
	agg := newAggregator(t, &scriptedWalker{})

	_, err := agg.BuildInitial(profileHTML(true, "1"))
	require.NoError(t, err)

	_, err = agg.BuildInitial(profileHTML(true, "9"))
	assert.ErrorIs(t, err, ErrAlreadyBuilt)
	assert.Equal(t, "1", agg.Snapshot().Posts[0].ID)
}

func TestBuildInitialFailureLeavesNothing(t *testing.T) {
	agg := newAggregator(t, &scriptedWalker{})

	_, err := agg.BuildInitial("<html>login</html>")
	assert.ErrorIs(t, err, errs.ErrMarkerNotFound)
	assert.Empty(t, agg.Snapshot().ID)

	_, err = agg.FetchMore(context.Background())
	assert.ErrorIs(t, err, ErrNotBuilt)

	// a failed build can be retried
	_, err = agg.BuildInitial(profileHTML(false, "1"))
	assert.NoError(t, err)
}

func TestFetchMoreIdempotence(t *testing.T) {
	pageTwo := []models.Post{post("3"), post("4"), post("5")}
	walker := &scriptedWalker{steps: []step{
		{posts: pageTwo, next: models.PageInfo{HasNextPage: true, EndCursor: "c2"}},
	}}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(true, "1", "2"))
	require.NoError(t, err)

	first, err := agg.FetchMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Len(t, agg.Snapshot().Posts, 5)

	second, err := agg.FetchMore(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second, "same page again must be filtered by id")
	assert.Len(t, agg.Snapshot().Posts, 5)
	assert.Equal(t, 2, agg.Pages())
}

func TestFetchMoreFiltersFirstPageDuplicates(t *testing.T) {
	walker := &scriptedWalker{steps: []step{
		{posts: []models.Post{post("2"), post("3")}, next: models.PageInfo{}},
	}}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(true, "1", "2"))
	require.NoError(t, err)

	got, err := agg.FetchMore(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestFetchMoreTermination(t *testing.T) {
	walker := &scriptedWalker{steps: []step{
		{posts: []models.Post{post("3")}, next: models.PageInfo{HasNextPage: false, EndCursor: ""}},
	}}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(true, "1"))
	require.NoError(t, err)

	got, err := agg.FetchMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	final := agg.Cursor()

	for i := 0; i < 3; i++ {
		got, err = agg.FetchMore(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, final, agg.Cursor())
	}
	assert.Len(t, walker.cursors, 1, "walker must not be called after the last page")
}

func TestFetchMoreWithoutNextPageNeverCallsWalker(t *testing.T) {
	walker := &scriptedWalker{}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(false, "1"))
	require.NoError(t, err)

	got, err := agg.FetchMore(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, walker.cursors)
}

func TestFetchMoreErrorPreservesProfile(t *testing.T) {
	failure := &errs.FetchError{Reason: errs.FetchTransport, Status: 500}
	walker := &scriptedWalker{steps: []step{
		{err: failure},
		{posts: []models.Post{post("3")}, next: models.PageInfo{HasNextPage: true, EndCursor: "c2"}},
	}}
	agg := newAggregator(t, walker)
	before, err := agg.BuildInitial(profileHTML(true, "1", "2"))
	require.NoError(t, err)

	got, err := agg.FetchMore(context.Background())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.Equal(t, before, agg.Snapshot())
	assert.Equal(t, "c1", agg.Cursor().EndCursor)

	// the retry re-sends the same cursor
	got, err = agg.FetchMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []models.PageInfo{
		{HasNextPage: true, EndCursor: "c1"},
		{HasNextPage: true, EndCursor: "c1"},
	}, walker.cursors)
	assert.Equal(t, "c2", agg.Cursor().EndCursor)
}

func TestFetchMoreAbsorbsNoMorePages(t *testing.T) {
	walker := &scriptedWalker{steps: []step{{err: &errs.FetchError{Reason: errs.FetchNoMorePages}}}}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(true, "1"))
	require.NoError(t, err)

	got, err := agg.FetchMore(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotIsNotMutatedByLaterPages(t *testing.T) {
	walker := &scriptedWalker{steps: []step{
		{posts: []models.Post{post("3"), post("4")}, next: models.PageInfo{}},
	}}
	agg := newAggregator(t, walker)
	_, err := agg.BuildInitial(profileHTML(true, "1", "2"))
	require.NoError(t, err)

	snapshot := agg.Snapshot()
	_, err = agg.FetchMore(context.Background())
	require.NoError(t, err)

	assert.Len(t, snapshot.Posts, 2)
	assert.True(t, snapshot.PageInfo.HasNextPage)
	assert.Len(t, agg.Snapshot().Posts, 4)
}

type fakeFetcher struct {
	status int
	body   string
	err    error
	urls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, params url.Values) (int, []byte, error) {
	f.urls = append(f.urls, rawURL)
	return f.status, []byte(f.body), f.err
}

func TestLoad(t *testing.T) {
	e, err := extract.New(config.DefaultConfig().Extraction)
	require.NoError(t, err)

	f := &fakeFetcher{status: http.StatusOK, body: profileHTML(false, "1")}
	agg := New(e, &scriptedWalker{}, f, "https://host.test", nil)

	profile, err := agg.Load(context.Background(), "someone")
	require.NoError(t, err)
	assert.Equal(t, "someone", profile.Username)
	assert.Equal(t, []string{"https://host.test/someone"}, f.urls)

	_, err = agg.Load(context.Background(), "someone")
	assert.ErrorIs(t, err, ErrAlreadyBuilt)
	assert.Len(t, f.urls, 1)
}

func TestLoadFailures(t *testing.T) {
	e, err := extract.New(config.DefaultConfig().Extraction)
	require.NoError(t, err)

	notFound := New(e, nil, &fakeFetcher{status: http.StatusNotFound}, "https://host.test", nil)
	_, err = notFound.Load(context.Background(), "missing")
	var transportErr *errs.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusNotFound, transportErr.Status)
	assert.Equal(t, "https://host.test/missing", transportErr.URL)

	network := New(e, nil, &fakeFetcher{err: &errs.TransportError{Err: errors.New("dial")}}, "https://host.test", nil)
	_, err = network.Load(context.Background(), "someone")
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.Empty(t, network.Snapshot().ID)
}
