package instagram

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the default remote host
	BaseURL = "https://www.instagram.com"

	// PaginationEndpoint serves follow-up timeline pages
	PaginationEndpoint = "/graphql/query/"

	// DefaultPageSize is the number of posts requested per follow-up page
	DefaultPageSize = 12

	// MaxPageSize is the largest page the endpoint honours
	MaxPageSize = 50
)

// ProfileURL returns the profile document URL for username on base
func ProfileURL(base, username string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(username)
}

// PaginationURL returns the follow-up query URL on base
func PaginationURL(base string) string {
	return strings.TrimRight(base, "/") + PaginationEndpoint
}

// PaginationParams builds the query for one follow-up page.
// first is clamped to [1, MaxPageSize].
func PaginationParams(queryHash, profileID string, first int, after string) url.Values {
	if first <= 0 {
		first = DefaultPageSize
	} else if first > MaxPageSize {
		first = MaxPageSize
	}

	params := url.Values{}
	params.Set("query_hash", queryHash)
	params.Set("id", profileID)
	params.Set("first", strconv.Itoa(first))
	params.Set("after", after)
	return params
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, a profile URL prefix and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if u, err := url.Parse(username); err == nil && u.Host != "" {
		username = strings.Trim(u.Path, "/")
	}
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
