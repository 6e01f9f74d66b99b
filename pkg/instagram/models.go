package instagram

import "encoding/json"

// ProfileUser is the profile object carved from the profile document
type ProfileUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Biography       string `json:"biography"`
	ProfilePicURL   string `json:"profile_pic_url"`
	ProfilePicURLHD string `json:"profile_pic_url_hd"`
	IsPrivate       bool   `json:"is_private"`
	EdgeFollowedBy  Count  `json:"edge_followed_by"`
	EdgeFollow      Count  `json:"edge_follow"`
}

// Count wraps the edge counters Instagram nests as {"count": n}
type Count struct {
	Count int `json:"count"`
}

// Timeline is the edge_owner_to_timeline_media object, both in the profile
// document and in pagination responses
type Timeline struct {
	Count    int      `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []Edge   `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Edge keeps the node undecoded so it can be archived verbatim
type Edge struct {
	Node json.RawMessage `json:"node"`
}

// Node is one post, or one child of a sidecar post
type Node struct {
	Typename           string        `json:"__typename"`
	ID                 string        `json:"id"`
	Shortcode          string        `json:"shortcode"`
	DisplayURL         string        `json:"display_url"`
	VideoURL           string        `json:"video_url"`
	IsVideo            bool          `json:"is_video"`
	TakenAtTimestamp   int64         `json:"taken_at_timestamp"`
	ThumbnailSrc       string        `json:"thumbnail_src"`
	ThumbnailResources []Resource    `json:"thumbnail_resources"`
	Caption            CaptionEdges  `json:"edge_media_to_caption"`
	Children           *SidecarEdges `json:"edge_sidecar_to_children"`
	Owner              Owner         `json:"owner"`
}

// Resource is one rendition of a thumbnail
type Resource struct {
	Src          string `json:"src"`
	ConfigWidth  int    `json:"config_width"`
	ConfigHeight int    `json:"config_height"`
}

// CaptionEdges holds the caption connection of a post
type CaptionEdges struct {
	Edges []CaptionEdge `json:"edges"`
}

// CaptionEdge wraps one caption node
type CaptionEdge struct {
	Node struct {
		Text string `json:"text"`
	} `json:"node"`
}

// SidecarEdges holds the ordered children of a gallery post
type SidecarEdges struct {
	Edges []ChildEdge `json:"edges"`
}

// ChildEdge wraps one gallery child
type ChildEdge struct {
	Node Node `json:"node"`
}

// Owner identifies the account a post belongs to
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PaginationResponse is the body of a follow-up page
type PaginationResponse struct {
	Data struct {
		User *struct {
			Timeline *Timeline `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

// Timeline returns the nested timeline, or nil when the response lacks it
func (r *PaginationResponse) Timeline() *Timeline {
	if r.Data.User == nil {
		return nil
	}
	return r.Data.User.Timeline
}
