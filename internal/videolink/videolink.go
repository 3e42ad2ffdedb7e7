// Package videolink turns the video URLs visitors paste into offerings into
// embeddable player URLs.
package videolink

import (
	"regexp"
	"strings"
)

const (
	ProviderYouTube = "youtube"
	ProviderVimeo   = "vimeo"
)

var (
	youtubeID = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	vimeoID   = regexp.MustCompile(`vimeo\.com/(?:channels/(?:\w+/)?|groups/(?:[^/]*)/videos/|album/(?:\d+)/video/|)(\d+)(?:$|/|\?)`)
)

// Embed describes how to play a video link inline.
type Embed struct {
	Provider     string
	EmbedURL     string
	ThumbnailURL string
}

// Parse returns the embed form of link. ok is false when link is not a
// YouTube or Vimeo video, in which case clients show a plain link.
func Parse(link string) (Embed, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Embed{}, false
	}

	if strings.Contains(link, "youtube.com/embed/") {
		e := Embed{Provider: ProviderYouTube, EmbedURL: link}
		if m := youtubeID.FindStringSubmatch(link); m != nil {
			e.ThumbnailURL = youtubeThumbnail(m[1])
		}
		return e, true
	}
	if strings.Contains(link, "player.vimeo.com/video/") {
		return Embed{Provider: ProviderVimeo, EmbedURL: link}, true
	}

	if m := youtubeID.FindStringSubmatch(link); m != nil {
		return Embed{
			Provider:     ProviderYouTube,
			EmbedURL:     "https://www.youtube.com/embed/" + m[1],
			ThumbnailURL: youtubeThumbnail(m[1]),
		}, true
	}
	if m := vimeoID.FindStringSubmatch(link); m != nil {
		return Embed{
			Provider: ProviderVimeo,
			EmbedURL: "https://player.vimeo.com/video/" + m[1],
		}, true
	}
	return Embed{}, false
}

// EmbedURL returns the player URL for link, or "" when it cannot be embedded.
func EmbedURL(link string) string {
	e, _ := Parse(link)
	return e.EmbedURL
}

func youtubeThumbnail(id string) string {
	return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
}
