package news

import "github.com/kyle-ycp/sentiment-analysis-dashboard/pkg/models"

// PreferredMediaFormat is the thumbnail variant the dashboard shows
const PreferredMediaFormat = "threeByTwoSmallAt2X"

// NoImage is returned together with ok=false when no image can be selected
const NoImage = ""

// SelectImageURL picks the image for an article using PreferredMediaFormat
func SelectImageURL(media []models.MediaItem) (string, bool) {
	return SelectImageURLWithFormat(media, PreferredMediaFormat)
}

// SelectImageURLWithFormat prefers the first item tagged with format, then
// falls back to the first item's URL.
func SelectImageURLWithFormat(media []models.MediaItem, format string) (string, bool) {
	for _, item := range media {
		if item.URL != "" && item.Format == format {
			return item.URL, true
		}
	}

	if len(media) > 0 && media[0].URL != "" {
		return media[0].URL, true
	}

	return NoImage, false
}
