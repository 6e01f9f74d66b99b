// Package extract pulls the profile and its first page of posts out of the
// embedded JSON of a profile document.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
	"igarchiver/pkg/instagram"
	"igarchiver/pkg/media"
	"igarchiver/pkg/models"
)

// ProfileFields are the account attributes carried by the profile object
type ProfileFields struct {
	ID            string
	Username      string
	FullName      string
	Biography     string
	ProfilePicURL string
	Followers     int
	Followees     int
	IsPrivate     bool
}

// Document is everything one profile document yields
type Document struct {
	Fields    ProfileFields
	Posts     []models.Post
	PageInfo  models.PageInfo
	PostCount int
}

// Profile returns the initial aggregate built from the document
func (d *Document) Profile() models.Profile {
	return models.Profile{
		ID:            d.Fields.ID,
		Username:      d.Fields.Username,
		FullName:      d.Fields.FullName,
		Biography:     d.Fields.Biography,
		ProfilePicURL: d.Fields.ProfilePicURL,
		Followers:     d.Fields.Followers,
		Followees:     d.Fields.Followees,
		IsPrivate:     d.Fields.IsPrivate,
		PostCount:     d.PostCount,
		Posts:         d.Posts,
		PageInfo:      d.PageInfo,
	}
}

// Extractor carves the profile and timeline objects with one Carver
type Extractor struct {
	carver   Carver
	profile  config.MarkerPair
	timeline config.MarkerPair
	loc      *time.Location
}

// New builds an extractor from configuration
func New(cfg config.ExtractionConfig) (*Extractor, error) {
	carver, err := NewCarver(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return NewWithCarver(carver, cfg.Profile, cfg.Timeline), nil
}

// NewWithCarver builds an extractor around an explicit carver
func NewWithCarver(carver Carver, profile, timeline config.MarkerPair) *Extractor {
	return &Extractor{
		carver:   carver,
		profile:  profile,
		timeline: timeline,
		loc:      time.Local,
	}
}

// WithLocation sets the zone post basenames are rendered in
func (e *Extractor) WithLocation(loc *time.Location) *Extractor {
	e.loc = loc
	return e
}

// Location is the zone post basenames are rendered in
func (e *Extractor) Location() *time.Location {
	return e.loc
}

// ExtractProfile carves and decodes the profile and the first timeline page.
// It returns either a complete document or an *errors.ExtractError.
func (e *Extractor) ExtractProfile(html string) (*Document, error) {
	profileText, err := e.carver.Carve(html, e.profile)
	if err != nil {
		return nil, err
	}
	var user instagram.ProfileUser
	if err := json.Unmarshal([]byte(profileText), &user); err != nil {
		return nil, errs.MalformedJSON(fmt.Errorf("profile object: %w", err))
	}
	if user.ID == "" || user.Username == "" {
		return nil, errs.MalformedJSON(errors.New("profile object: missing id or username"))
	}

	timelineText, err := e.carver.Carve(html, e.timeline)
	if err != nil {
		return nil, err
	}
	var timeline instagram.Timeline
	if err := json.Unmarshal([]byte(timelineText), &timeline); err != nil {
		return nil, errs.MalformedJSON(fmt.Errorf("timeline object: %w", err))
	}

	posts, err := media.NewPosts(timeline.Edges, e.loc)
	if err != nil {
		return nil, errs.MalformedJSON(fmt.Errorf("timeline object: %w", err))
	}

	pic := user.ProfilePicURLHD
	if pic == "" {
		pic = user.ProfilePicURL
	}

	return &Document{
		Fields: ProfileFields{
			ID:            user.ID,
			Username:      user.Username,
			FullName:      user.FullName,
			Biography:     user.Biography,
			ProfilePicURL: pic,
			Followers:     user.EdgeFollowedBy.Count,
			Followees:     user.EdgeFollow.Count,
			IsPrivate:     user.IsPrivate,
		},
		Posts:     posts,
		PageInfo:  models.PageInfoFrom(timeline.PageInfo),
		PostCount: timeline.Count,
	}, nil
}
