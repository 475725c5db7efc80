package views

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/thinkscotty/briefing/internal/models"
)

// requiredFeedFields mirrors the required attributes on the add form.
var requiredFeedFields = []string{"name", "type", "url", "lang", "diversity_score"}

// FormError describes why an add-feed submission could not be parsed.
type FormError struct {
	Missing []string
	Invalid string
}

func (e *FormError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required field(s): " + strings.Join(e.Missing, ", ")
	}
	return e.Invalid
}

// ParseFeedForm reads an add-feed submission. The only semantic check is that
// the diversity score parses as a number. The returned record always carries
// the submitted values so the form can be redisplayed on error.
func ParseFeedForm(form url.Values) (models.FeedSource, error) {
	get := func(key string) string { return strings.TrimSpace(form.Get(key)) }

	feed := models.FeedSource{
		Name:        get("name"),
		Type:        get("type"),
		URL:         get("url"),
		Lang:        get("lang"),
		Perspective: get("perspective"),
		Region:      get("region"),
	}

	var missing []string
	for _, key := range requiredFeedFields {
		if get(key) == "" {
			missing = append(missing, key)
		}
	}

	rawScore := get("diversity_score")
	if rawScore != "" {
		score, err := strconv.ParseFloat(rawScore, 64)
		if err != nil {
			if len(missing) == 0 {
				return feed, &FormError{Invalid: fmt.Sprintf("diversity score %q is not a number", rawScore)}
			}
		} else {
			feed.DiversityScore = score
		}
	}

	if len(missing) > 0 {
		return feed, &FormError{Missing: missing}
	}
	return feed, nil
}
