package media

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// BasenameLayout renders a post timestamp as a filesystem-safe name
const BasenameLayout = "2006-01-02_15-04-05"

// DefaultExt is used when an asset URL carries no usable extension
const DefaultExt = ".jpg"

// Basename formats ts in the local zone
func Basename(ts int64) string {
	return BasenameIn(ts, time.Local)
}

// BasenameIn formats ts in loc
func BasenameIn(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format(BasenameLayout)
}

// Ext returns the extension of the URL's path, ignoring the query string
func Ext(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExt
	}

	ext := path.Ext(u.Path)
	if len(ext) < 2 || len(ext) > 6 || strings.Contains(ext, ";") {
		return DefaultExt
	}
	return strings.ToLower(ext)
}
