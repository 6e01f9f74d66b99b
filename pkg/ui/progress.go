package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type profileProgress struct {
	total   int
	pages   int
	saved   int
	skipped int
	failed  int
	bytes   int64
	started time.Time
}

// Console prints one status line per event. It is safe for concurrent
// profiles; lines from different profiles interleave but never tear.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	verbose  bool
	profiles map[string]*profileProgress
}

// NewConsole creates a console reporter. Per-asset lines are printed only
// when verbose is set.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{
		out:      out,
		verbose:  verbose,
		profiles: make(map[string]*profileProgress),
	}
}

// ProfileStarted is called once the profile document was extracted
func (c *Console) ProfileStarted(username string, totalPosts int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profiles[username] = &profileProgress{total: totalPosts, started: time.Now()}
	fmt.Fprintf(c.out, "%s %s %s\n",
		labelStyle.Render("@"+username),
		dimStyle.Render("•"),
		valueStyle.Render(fmt.Sprintf("%d posts", totalPosts)),
	)
}

// PageFetched is called after each follow-up page
func (c *Console) PageFetched(username string, page, posts int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.progress(username)
	p.pages = page
	fmt.Fprintf(c.out, "%s %s page %d, %d new posts\n",
		labelStyle.Render("@"+username),
		dimStyle.Render("→"),
		page,
		posts,
	)
}

// AssetDone is called for every asset job
func (c *Console) AssetDone(username, filename string, size int, skipped bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.progress(username)
	switch {
	case err != nil:
		p.failed++
		fmt.Fprintf(c.out, "%s %s %s\n", errorStyle.Render("✗"), filename, dimStyle.Render(err.Error()))
	case skipped:
		p.skipped++
		if c.verbose {
			fmt.Fprintf(c.out, "%s %s\n", dimStyle.Render("="), dimStyle.Render(filename))
		}
	default:
		p.saved++
		p.bytes += int64(size)
		if c.verbose {
			fmt.Fprintf(c.out, "%s %s %s\n", successStyle.Render("✓"), filename, dimStyle.Render(FormatBytes(int64(size))))
		}
	}
}

// ProfileDone prints the summary for a profile
func (c *Console) ProfileDone(username string, posts, assets int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.progress(username)
	delete(c.profiles, username)

	if err != nil && p.started.IsZero() {
		fmt.Fprintf(c.out, "%s @%s: %v\n", errorStyle.Render("✗"), username, err)
		return
	}

	status := successStyle.Render("✓")
	if err != nil {
		status = warningStyle.Render("⚠")
	}
	fmt.Fprintf(c.out, "%s @%s: %d posts, %d assets saved, %d skipped",
		status, username, posts, assets, p.skipped)
	if p.failed > 0 {
		fmt.Fprintf(c.out, ", %s", errorStyle.Render(fmt.Sprintf("%d failed", p.failed)))
	}
	fmt.Fprintf(c.out, " %s\n", dimStyle.Render(fmt.Sprintf("(%s in %s)", FormatBytes(p.bytes), FormatDuration(time.Since(p.started)))))
	if err != nil {
		fmt.Fprintf(c.out, "  %s %v\n", dimStyle.Render("•"), err)
	}
}

func (c *Console) progress(username string) *profileProgress {
	p, ok := c.profiles[username]
	if !ok {
		p = &profileProgress{}
		c.profiles[username] = p
	}
	return p
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
