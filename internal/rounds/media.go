package rounds

import (
	"fmt"
	"net/url"
)

// Asset references are plain templates over the video id. Fetching them is
// the client's job, including falling back to FallbackImageURL when the
// high resolution still does not exist.
const (
	hintImageTemplate     = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
	fallbackImageTemplate = "https://img.youtube.com/vi/%s/hqdefault.jpg"
	embedTemplate         = "https://www.youtube-nocookie.com/embed/%s?autoplay=1&start=%d&controls=1&rel=0&modestbranding=1&playsinline=1&enablejsapi=1&origin=%s"
)

func HintImageURL(videoRef string) string {
	return fmt.Sprintf(hintImageTemplate, videoRef)
}

func FallbackImageURL(videoRef string) string {
	return fmt.Sprintf(fallbackImageTemplate, videoRef)
}

// EmbedURL builds the player URL for the reveal. origin is the page origin
// the player is embedded in and may be empty.
func EmbedURL(videoRef string, startSeconds int, origin string) string {
	if startSeconds < 0 {
		startSeconds = 0
	}
	return fmt.Sprintf(embedTemplate, videoRef, startSeconds, url.QueryEscape(origin))
}
