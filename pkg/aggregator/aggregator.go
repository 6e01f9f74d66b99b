// Package aggregator owns the running Profile of one account: the first page
// comes from the profile document, later pages from the pagination walker.
package aggregator

import (
	"context"
	"errors"
	"sync"

	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/extract"
	"igarchiver/pkg/instagram"
	"igarchiver/pkg/logger"
	"igarchiver/pkg/models"
	"igarchiver/pkg/pagination"
)

// ErrAlreadyBuilt is returned by a second BuildInitial or Load
var ErrAlreadyBuilt = errors.New("profile already built")

// ErrNotBuilt is returned by FetchMore before the profile exists
var ErrNotBuilt = errors.New("profile not built")

// ProfileExtractor turns a profile document into its fields and first page
type ProfileExtractor interface {
	ExtractProfile(html string) (*extract.Document, error)
}

// PageWalker fetches the page after a cursor
type PageWalker interface {
	NextPage(ctx context.Context, profileID string, cursor models.PageInfo) ([]models.Post, models.PageInfo, error)
}

// Aggregator is safe for concurrent use, though one profile is normally
// driven by a single goroutine
type Aggregator struct {
	extractor ProfileExtractor
	walker    PageWalker
	fetcher   pagination.Fetcher
	baseURL   string
	logger    logger.Logger

	mu      sync.Mutex
	built   bool
	profile models.Profile
	seen    map[string]struct{}
	pages   int
}

// New creates an aggregator. fetcher and baseURL are only needed by Load.
func New(extractor ProfileExtractor, walker PageWalker, fetcher pagination.Fetcher, baseURL string, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Aggregator{
		extractor: extractor,
		walker:    walker,
		fetcher:   fetcher,
		baseURL:   baseURL,
		logger:    log,
		seen:      make(map[string]struct{}),
	}
}

// Load fetches the profile document for username and builds from it
func (a *Aggregator) Load(ctx context.Context, username string) (models.Profile, error) {
	a.mu.Lock()
	built := a.built
	a.mu.Unlock()
	if built {
		return models.Profile{}, ErrAlreadyBuilt
	}

	target := instagram.ProfileURL(a.baseURL, username)
	status, body, err := a.fetcher.Fetch(ctx, target, nil)
	if err != nil {
		return models.Profile{}, err
	}
	if status < 200 || status > 299 {
		return models.Profile{}, &errs.TransportError{URL: target, Status: status}
	}
	return a.BuildInitial(string(body))
}

// BuildInitial populates the profile and its first page. It may succeed only
// once; a failed build leaves the aggregator empty and may be retried.
func (a *Aggregator) BuildInitial(html string) (models.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return models.Profile{}, ErrAlreadyBuilt
	}

	doc, err := a.extractor.ExtractProfile(html)
	if err != nil {
		return models.Profile{}, err
	}
	profile := doc.Profile()

	first := make([]models.Post, 0, len(profile.Posts))
	for _, post := range profile.Posts {
		if _, dup := a.seen[post.ID]; dup {
			continue
		}
		a.seen[post.ID] = struct{}{}
		first = append(first, post)
	}
	profile.Posts = first

	a.profile = profile
	a.built = true
	logger.LogProfile(a.logger, profile.Username, profile.ID, len(first), profile.PostCount)
	return a.profile, nil
}

// FetchMore fetches the next page and returns only posts not seen before.
// Once the cursor has no next page it returns nil, nil without a request.
// On error the profile and cursor are left untouched.
func (a *Aggregator) FetchMore(ctx context.Context) ([]models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.built {
		return nil, ErrNotBuilt
	}
	if !a.profile.PageInfo.HasNextPage {
		return nil, nil
	}

	posts, next, err := a.walker.NextPage(ctx, a.profile.ID, a.profile.PageInfo)
	if err != nil {
		if errors.Is(err, errs.ErrNoMorePages) {
			return nil, nil
		}
		return nil, err
	}

	fresh := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if _, dup := a.seen[post.ID]; dup {
			continue
		}
		a.seen[post.ID] = struct{}{}
		fresh = append(fresh, post)
	}

	a.profile = a.profile.Append(fresh, next)
	a.pages++
	logger.LogPage(a.logger, a.profile.Username, a.pages, len(fresh), next.HasNextPage)
	return fresh, nil
}

// Snapshot returns the profile as it stands. Later pages never modify a
// returned snapshot.
func (a *Aggregator) Snapshot() models.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// Cursor returns the current continuation cursor
func (a *Aggregator) Cursor() models.PageInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile.PageInfo
}

// Pages is the number of follow-up pages merged so far
func (a *Aggregator) Pages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pages
}
