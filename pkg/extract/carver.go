package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"igarchiver/pkg/config"
	errs "igarchiver/pkg/errors"
)

// Carver locates the JSON text bounded by a marker pair
type Carver interface {
	Carve(document string, pair config.MarkerPair) (string, error)
}

// MarkerCarver searches the whole document. The end marker is the first
// occurrence after the start marker.
type MarkerCarver struct{}

func (MarkerCarver) Carve(document string, pair config.MarkerPair) (string, error) {
	start := strings.Index(document, pair.Start)
	if start < 0 {
		return "", errs.MarkerNotFound(pair.Start)
	}
	rest := document[start+len(pair.Start):]

	end := strings.Index(rest, pair.End)
	if end < 0 {
		return "", errs.MarkerNotFound(pair.End)
	}

	inner := rest[:end]
	if pair.Wrap {
		return "{" + inner + "}", nil
	}
	return inner, nil
}

// ScriptCarver parses the document and carves inside the first <script>
// body holding the start marker
type ScriptCarver struct{}

func (ScriptCarver) Carve(document string, pair config.MarkerPair) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", &errs.ExtractError{
			Reason: errs.ExtractMarkerNotFound,
			Marker: pair.Start,
			Err:    fmt.Errorf("parse document: %w", err),
		}
	}

	var body string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, pair.Start) {
			body = text
			return false
		}
		return true
	})
	if body == "" {
		return "", errs.MarkerNotFound(pair.Start)
	}
	return MarkerCarver{}.Carve(body, pair)
}

// NewCarver returns the carver for a configured strategy name
func NewCarver(strategy string) (Carver, error) {
	switch strategy {
	case "markers", "":
		return MarkerCarver{}, nil
	case "script":
		return ScriptCarver{}, nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", strategy)
	}
}
