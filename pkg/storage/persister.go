package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"igarchiver/pkg/media"
	"igarchiver/pkg/models"
)

const (
	// ProfilePicName is the profile picture file inside the user directory
	ProfilePicName = "profile_pic.jpg"
	// DescriptionName is the profile metadata file inside the user directory
	DescriptionName = "description.json"
)

// Persister writes one account's archive under <base>/<username>/.
// The directory is created by the first write, not by New.
type Persister struct {
	dir       string
	overwrite bool

	mu      sync.Mutex
	scanned bool
	owners  map[string]string // basename -> post id
	names   map[string]string // post id -> basename
	saved   int
}

// New creates a persister for username under baseDir
func New(baseDir, username string, overwrite bool) *Persister {
	return &Persister{
		dir:       filepath.Join(baseDir, username),
		overwrite: overwrite,
		owners:    make(map[string]string),
		names:     make(map[string]string),
	}
}

// Dir returns the user directory
func (p *Persister) Dir() string {
	return p.dir
}

// Claim returns the basename the post's files are written under. A basename
// already held by another post id, in this run or on disk, gets the post id
// appended. The same post always gets the same name.
func (p *Persister) Claim(post models.Post) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.scanLocked(); err != nil {
		return "", err
	}

	if name, ok := p.names[post.ID]; ok {
		return name, nil
	}

	name := post.Basename
	if owner, taken := p.owners[name]; taken && owner != post.ID {
		name = post.Basename + "_" + post.ID
	}
	p.owners[name] = post.ID
	p.names[post.ID] = name
	return name, nil
}

// scanLocked records the post ids of <basename>.json files already on disk
func (p *Persister) scanLocked() error {
	if p.scanned {
		return nil
	}

	entries, err := os.ReadDir(p.dir)
	if os.IsNotExist(err) {
		p.scanned = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || name == DescriptionName {
			continue
		}

		data, err := os.ReadFile(filepath.Join(p.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		var node struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &node); err != nil || node.ID == "" {
			continue
		}

		base := strings.TrimSuffix(name, ".json")
		p.owners[base] = node.ID
		p.names[node.ID] = base
	}

	p.scanned = true
	return nil
}

// AssetName is <basename>_<index><ext>
func AssetName(basename string, index int, assetURL string) string {
	return fmt.Sprintf("%s_%d%s", basename, index, media.Ext(assetURL))
}

// ThumbName is <basename>_thumb<ext>
func ThumbName(basename, assetURL string) string {
	return basename + "_thumb" + media.Ext(assetURL)
}

// Exists reports whether name is already archived and should be skipped.
// It is always false when overwriting.
func (p *Persister) Exists(name string) bool {
	if p.overwrite {
		return false
	}
	_, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil
}

// SaveDescription writes description.json
func (p *Persister) SaveDescription(profile models.Profile) error {
	data, err := json.MarshalIndent(profile.Description(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}
	return p.write(DescriptionName, bytes.NewReader(data))
}

// SaveProfilePicture writes profile_pic.jpg
func (p *Persister) SaveProfilePicture(data []byte) error {
	return p.write(ProfilePicName, bytes.NewReader(data))
}

// SavePostMeta writes <basename>.json (the raw node) and <basename>.txt (the caption)
func (p *Persister) SavePostMeta(basename string, post models.Post) error {
	if err := p.write(basename+".json", bytes.NewReader(post.Raw)); err != nil {
		return err
	}
	return p.write(basename+".txt", strings.NewReader(post.Caption))
}

// SaveAsset writes one downloaded asset
func (p *Persister) SaveAsset(name string, r io.Reader) error {
	if err := p.write(name, r); err != nil {
		return err
	}
	p.mu.Lock()
	p.saved++
	p.mu.Unlock()
	return nil
}

// SavedCount is the number of assets written by this persister
func (p *Persister) SavedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

// write stores r under name through a temporary file and a rename
func (p *Persister) write(name string, r io.Reader) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.CreateTemp(p.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filepath.Join(p.dir, name)); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
