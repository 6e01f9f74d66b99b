// Package pagination fetches follow-up timeline pages one cursor at a time.
package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/instagram"
	"igarchiver/pkg/logger"
	"igarchiver/pkg/media"
	"igarchiver/pkg/models"
	"igarchiver/pkg/ratelimit"
)

// Fetcher is the injected HTTP capability. A network failure is an error;
// any received status, 2xx or not, is returned with its body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values) (int, []byte, error)
}

// Walker issues exactly one request per NextPage call. It neither retries
// nor deduplicates.
type Walker struct {
	fetcher   Fetcher
	endpoint  string
	queryHash string
	pageSize  int
	loc       *time.Location
	limiter   ratelimit.Limiter
	logger    logger.Logger
}

// Option configures a Walker
type Option func(*Walker)

// WithLocation sets the zone post basenames are rendered in
func WithLocation(loc *time.Location) Option {
	return func(w *Walker) { w.loc = loc }
}

// WithLimiter paces page requests
func WithLimiter(l ratelimit.Limiter) Option {
	return func(w *Walker) { w.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// NewWalker creates a walker against the pagination endpoint on baseURL
func NewWalker(fetcher Fetcher, baseURL string, cfg config.PaginationConfig, opts ...Option) *Walker {
	w := &Walker{
		fetcher:   fetcher,
		endpoint:  instagram.PaginationURL(baseURL),
		queryHash: cfg.QueryHash,
		pageSize:  cfg.PageSize,
		loc:       time.Local,
		limiter:   ratelimit.Nop{},
		logger:    logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NextPage fetches the page after cursor. It fails with
// errors.FetchNoMorePages, without touching the network, when the cursor
// says there is nothing left.
func (w *Walker) NextPage(ctx context.Context, profileID string, cursor models.PageInfo) ([]models.Post, models.PageInfo, error) {
	if !cursor.HasNextPage {
		return nil, cursor, &errs.FetchError{Reason: errs.FetchNoMorePages}
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, cursor, &errs.FetchError{Reason: errs.FetchTransport, Err: err}
	}

	params := instagram.PaginationParams(w.queryHash, profileID, w.pageSize, cursor.EndCursor)
	status, body, err := w.fetcher.Fetch(ctx, w.endpoint, params)
	if err != nil {
		return nil, cursor, &errs.FetchError{Reason: errs.FetchTransport, Status: statusOf(err), Err: err}
	}
	if status < 200 || status > 299 {
		w.logger.WarnWithFields("pagination request rejected", map[string]interface{}{
			"profile_id": profileID,
			"status":     status,
		})
		return nil, cursor, &errs.FetchError{Reason: errs.FetchTransport, Status: status}
	}

	var resp instagram.PaginationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, cursor, &errs.FetchError{Reason: errs.FetchMalformedResponse, Status: status, Err: err}
	}
	timeline := resp.Timeline()
	if timeline == nil {
		return nil, cursor, &errs.FetchError{
			Reason: errs.FetchMalformedResponse,
			Status: status,
			Err:    errors.New("missing data.user.edge_owner_to_timeline_media"),
		}
	}

	posts, err := media.NewPosts(timeline.Edges, w.loc)
	if err != nil {
		return nil, cursor, &errs.FetchError{Reason: errs.FetchMalformedResponse, Status: status, Err: err}
	}

	next := models.PageInfoFrom(timeline.PageInfo)
	if next.HasNextPage && next.EndCursor == "" {
		return nil, cursor, &errs.FetchError{
			Reason: errs.FetchMalformedResponse,
			Status: status,
			Err:    errors.New("has_next_page without end_cursor"),
		}
	}
	if next.HasNextPage && next.EndCursor == cursor.EndCursor {
		return nil, cursor, &errs.FetchError{
			Reason: errs.FetchMalformedResponse,
			Status: status,
			Err:    errors.New("end_cursor did not advance"),
		}
	}

	w.logger.DebugWithFields("page fetched", map[string]interface{}{
		"profile_id": profileID,
		"posts":      len(posts),
		"has_next":   next.HasNextPage,
	})
	return posts, next, nil
}

func statusOf(err error) int {
	var transportErr *errs.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Status
	}
	return 0
}
