package archiver

// Reporter receives progress for terminal display. Calls for different
// profiles may arrive concurrently.
type Reporter interface {
	ProfileStarted(username string, totalPosts int)
	PageFetched(username string, page, posts int)
	AssetDone(username, filename string, size int, skipped bool, err error)
	ProfileDone(username string, posts, assets int, err error)
}

type nopReporter struct{}

func (nopReporter) ProfileStarted(string, int)                 {}
func (nopReporter) PageFetched(string, int, int)               {}
func (nopReporter) AssetDone(string, string, int, bool, error) {}
func (nopReporter) ProfileDone(string, int, int, error)        {}
