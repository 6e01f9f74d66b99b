// Package media turns post nodes into ordered downloadable assets, derives
// the per-post file basename and builds immutable post values.
package media

import (
	"fmt"

	"igarchiver/pkg/instagram"
	"igarchiver/pkg/models"
)

// Resolve lists the assets of a post in filename-index order.
//
// An image yields its display URL. A video yields its video URL; its preview
// image is tracked on Post.Thumbnail instead. A sidecar yields its children
// in order, each video child contributing the video followed by its display
// image. Unknown post and child types contribute nothing.
func Resolve(node instagram.Node) []models.MediaAsset {
	switch models.PostType(node.Typename) {
	case models.PostImage:
		return []models.MediaAsset{primary(node.DisplayURL)}
	case models.PostVideo:
		return []models.MediaAsset{primary(node.VideoURL)}
	case models.PostSidecar:
		if node.Children == nil {
			return nil
		}
		assets := make([]models.MediaAsset, 0, len(node.Children.Edges)+1)
		for _, edge := range node.Children.Edges {
			child := edge.Node
			switch models.PostType(child.Typename) {
			case models.PostImage:
				assets = append(assets, primary(child.DisplayURL))
			case models.PostVideo:
				assets = append(assets,
					primary(child.VideoURL),
					models.MediaAsset{URL: child.DisplayURL, Role: models.RoleThumbnail},
				)
			}
		}
		return assets
	default:
		return nil
	}
}

// Validate reports a recognised post whose required URLs are absent.
// Unknown types always pass.
func Validate(node instagram.Node) error {
	switch models.PostType(node.Typename) {
	case models.PostImage:
		if node.DisplayURL == "" {
			return fmt.Errorf("image post %s: missing display_url", node.ID)
		}
	case models.PostVideo:
		if node.VideoURL == "" {
			return fmt.Errorf("video post %s: missing video_url", node.ID)
		}
	case models.PostSidecar:
		if node.Children == nil {
			return fmt.Errorf("sidecar post %s: missing edge_sidecar_to_children", node.ID)
		}
		for i, edge := range node.Children.Edges {
			child := edge.Node
			switch models.PostType(child.Typename) {
			case models.PostImage:
				if child.DisplayURL == "" {
					return fmt.Errorf("sidecar post %s child %d: missing display_url", node.ID, i)
				}
			case models.PostVideo:
				if child.VideoURL == "" || child.DisplayURL == "" {
					return fmt.Errorf("sidecar post %s child %d: missing video_url or display_url", node.ID, i)
				}
			}
		}
	}
	return nil
}

func primary(url string) models.MediaAsset {
	return models.MediaAsset{URL: url, Role: models.RolePrimary}
}
