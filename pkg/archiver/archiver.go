package archiver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"igarchiver/internal/downloader"
	"igarchiver/pkg/aggregator"
	"igarchiver/pkg/config"
	"igarchiver/pkg/extract"
	"igarchiver/pkg/instagram"
	"igarchiver/pkg/logger"
	"igarchiver/pkg/metrics"
	"igarchiver/pkg/models"
	"igarchiver/pkg/pagination"
	"igarchiver/pkg/ratelimit"
	"igarchiver/pkg/retry"
	"igarchiver/pkg/storage"
)

// Stats summarizes one profile's run
type Stats struct {
	Username string
	Posts    int
	Pages    int
	Saved    int
	Skipped  int
	Failed   int
	Bytes    int64
}

// Archiver orchestrates profile archiving
type Archiver struct {
	config    *config.Config
	client    *instagram.Client
	extractor *extract.Extractor
	metrics   *metrics.Collector
	reporter  Reporter
	logger    logger.Logger
	loc       *time.Location
}

// Option configures an Archiver
type Option func(*Archiver)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(a *Archiver) { a.logger = l }
}

// WithReporter sets the progress reporter
func WithReporter(r Reporter) Option {
	return func(a *Archiver) { a.reporter = r }
}

// WithMetrics shares a collector instead of creating one
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Archiver) { a.metrics = c }
}

// WithLocation renders basenames in loc instead of the local zone
func WithLocation(loc *time.Location) Option {
	return func(a *Archiver) { a.loc = loc }
}

// New creates a new Archiver from a validated configuration
func New(cfg *config.Config, opts ...Option) (*Archiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &Archiver{
		config:   cfg,
		reporter: nopReporter{},
		logger:   logger.GetLogger(),
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.NewCollector()
	}

	extractor, err := extract.New(cfg.Extraction)
	if err != nil {
		return nil, err
	}
	a.extractor = extractor.WithLocation(a.loc)
	a.client = instagram.NewClient(cfg.Instagram, cfg.Download.Timeout, a.logger)

	return a, nil
}

// Metrics returns the collector the run records into
func (a *Archiver) Metrics() *metrics.Collector {
	return a.metrics
}

// Archive archives every username, at most archive.parallel_profiles at a
// time. A failing profile does not stop the others; all failures are
// joined into the returned error. Stats are in username order.
func (a *Archiver) Archive(ctx context.Context, usernames []string) ([]Stats, error) {
	stats := make([]Stats, len(usernames))
	failures := make([]error, len(usernames))

	var g errgroup.Group
	g.SetLimit(a.config.Archive.ParallelProfiles)

	for i, username := range usernames {
		g.Go(func() error {
			stats[i], failures[i] = a.ArchiveProfile(ctx, username)
			return nil
		})
	}
	g.Wait()

	err := errors.Join(failures...)

	if path := a.config.Metrics.TextfilePath; path != "" {
		if werr := a.metrics.WriteTextfile(path); werr != nil {
			a.logger.WithError(werr).WithField("path", path).Warn("Failed to write metrics textfile")
		}
	}

	return stats, err
}

// ArchiveProfile archives one account. The returned stats describe what
// was written even when an error is returned.
func (a *Archiver) ArchiveProfile(ctx context.Context, username string) (Stats, error) {
	username = instagram.SanitizeUsername(username)
	stats := Stats{Username: username}
	if !instagram.IsValidUsername(username) {
		err := fmt.Errorf("invalid username %q", username)
		a.metrics.RecordProfile(err)
		return stats, err
	}

	log := a.logger.WithField("username", username)
	retryCfg := retry.FromConfig(a.config.Retry, log)

	walker := pagination.NewWalker(a.client, a.client.BaseURL(), a.config.Pagination,
		pagination.WithLocation(a.loc),
		pagination.WithLimiter(ratelimit.PerMinute(a.config.RateLimit.RequestsPerMinute)),
		pagination.WithLogger(log),
	)
	agg := aggregator.New(a.extractor, walker, a.client, a.client.BaseURL(), log)

	profile, err := retry.DoWithResult(ctx, func() (models.Profile, error) {
		return agg.Load(ctx, username)
	}, retryCfg)
	if err != nil {
		log.WithError(err).Error("Failed to load profile")
		a.metrics.RecordProfile(err)
		a.reporter.ProfileDone(username, 0, 0, err)
		return stats, fmt.Errorf("failed to load profile %s: %w", username, err)
	}
	a.reporter.ProfileStarted(username, profile.PostCount)

	persister := storage.New(a.config.Output.BaseDirectory, username, a.config.Download.OverwriteExisting)
	delay := ratelimit.NewInterval(a.config.Download.Delay)

	err = a.run(ctx, agg, profile, persister, delay, &stats, log)
	a.metrics.RecordProfile(err)
	a.reporter.ProfileDone(username, stats.Posts, stats.Saved, err)

	if err != nil {
		log.WithError(err).WarnWithFields("Profile archived partially", map[string]interface{}{
			"posts": stats.Posts,
			"pages": stats.Pages,
		})
		return stats, fmt.Errorf("archive %s: %w", username, err)
	}

	log.InfoWithFields("Profile archived", map[string]interface{}{
		"posts":   stats.Posts,
		"pages":   stats.Pages,
		"saved":   stats.Saved,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	})
	return stats, nil
}

// run persists the profile and its first page, then each following page
func (a *Archiver) run(
	ctx context.Context,
	agg *aggregator.Aggregator,
	profile models.Profile,
	persister *storage.Persister,
	delay ratelimit.Limiter,
	stats *Stats,
	log logger.Logger,
) error {
	if err := persister.SaveDescription(profile); err != nil {
		return err
	}
	a.saveProfilePicture(ctx, profile, persister, delay, stats, log)

	if err := a.persistBatch(ctx, profile.Posts, persister, delay, stats, log); err != nil {
		return err
	}

	retryCfg := retry.FromConfig(a.config.Retry, log)
	maxPages := a.config.Pagination.MaxPages

	for maxPages == 0 || stats.Pages < maxPages {
		if !agg.Cursor().HasNextPage {
			return nil
		}

		batch, err := retry.DoWithResult(ctx, func() ([]models.Post, error) {
			start := time.Now()
			posts, err := agg.FetchMore(ctx)
			a.metrics.RecordPage(time.Since(start), err)
			return posts, err
		}, retryCfg)
		if err != nil {
			return fmt.Errorf("page %d: %w", stats.Pages+1, err)
		}
		stats.Pages++
		a.reporter.PageFetched(profile.Username, stats.Pages, len(batch))

		if err := a.persistBatch(ctx, batch, persister, delay, stats, log); err != nil {
			return err
		}
	}

	log.WithField("max_pages", maxPages).Info("Page limit reached")
	return nil
}

// persistBatch writes each post's metadata and downloads its assets. Asset
// filenames are fixed here, before any download starts.
func (a *Archiver) persistBatch(
	ctx context.Context,
	posts []models.Post,
	persister *storage.Persister,
	delay ratelimit.Limiter,
	stats *Stats,
	log logger.Logger,
) error {
	var jobs []downloader.Job

	for _, post := range posts {
		basename, err := persister.Claim(post)
		if err != nil {
			return err
		}
		if err := persister.SavePostMeta(basename, post); err != nil {
			return err
		}
		stats.Posts++
		a.metrics.RecordPosts(1)

		for i, asset := range post.Media {
			jobs = append(jobs, downloader.Job{
				URL:      asset.URL,
				Filename: storage.AssetName(basename, i, asset.URL),
				Username: stats.Username,
				PostID:   post.ID,
			})
		}
		if post.Thumbnail != "" {
			jobs = append(jobs, downloader.Job{
				URL:      post.Thumbnail,
				Filename: storage.ThumbName(basename, post.Thumbnail),
				Username: stats.Username,
				PostID:   post.ID,
			})
		}
	}

	if len(jobs) == 0 {
		return ctx.Err()
	}

	pool := downloader.NewWorkerPool(a.config.Download.Workers, a.client, persister, delay, log)
	for _, result := range pool.Run(ctx, jobs) {
		a.metrics.RecordAsset(result.Size, result.Skipped, result.Error)
		a.reporter.AssetDone(stats.Username, result.Job.Filename, result.Size, result.Skipped, result.Error)
		switch {
		case result.Error != nil:
			stats.Failed++
		case result.Skipped:
			stats.Skipped++
		default:
			stats.Saved++
			stats.Bytes += int64(result.Size)
		}
	}

	return ctx.Err()
}

// saveProfilePicture is best effort; a failure is counted and logged
func (a *Archiver) saveProfilePicture(
	ctx context.Context,
	profile models.Profile,
	persister *storage.Persister,
	delay ratelimit.Limiter,
	stats *Stats,
	log logger.Logger,
) {
	if profile.ProfilePicURL == "" {
		return
	}
	if persister.Exists(storage.ProfilePicName) {
		stats.Skipped++
		a.metrics.RecordAsset(0, true, nil)
		return
	}

	err := delay.Wait(ctx)
	var data []byte
	if err == nil {
		data, err = a.client.Download(ctx, profile.ProfilePicURL)
	}
	if err == nil {
		err = persister.SaveProfilePicture(data)
	}

	a.metrics.RecordAsset(len(data), false, err)
	a.reporter.AssetDone(stats.Username, storage.ProfilePicName, len(data), false, err)
	logger.LogAsset(log, stats.Username, storage.ProfilePicName, len(data), err)
	if err != nil {
		stats.Failed++
		return
	}
	stats.Saved++
	stats.Bytes += int64(len(data))
}
