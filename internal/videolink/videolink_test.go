package videolink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYouTube(t *testing.T) {
	tests := []struct {
		name string
		link string
	}{
		{"short link", "https://youtu.be/abc12345678"},
		{"watch", "https://www.youtube.com/watch?v=abc12345678"},
		{"watch with extra params", "https://www.youtube.com/watch?feature=share&v=abc12345678&t=10"},
		{"v path", "https://www.youtube.com/v/abc12345678"},
		{"user path", "https://www.youtube.com/user/someone/abc12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Parse(tt.link)
			assert.True(t, ok)
			assert.Equal(t, ProviderYouTube, e.Provider)
			assert.Equal(t, "https://www.youtube.com/embed/abc12345678", e.EmbedURL)
			assert.Equal(t, "https://img.youtube.com/vi/abc12345678/maxresdefault.jpg", e.ThumbnailURL)
		})
	}
}

func TestParseVimeo(t *testing.T) {
	tests := []struct {
		name string
		link string
	}{
		{"plain", "https://vimeo.com/76979871"},
		{"channel", "https://vimeo.com/channels/staffpicks/76979871"},
		{"group", "https://vimeo.com/groups/shortfilms/videos/76979871"},
		{"album", "https://vimeo.com/album/2222/video/76979871"},
		{"query", "https://vimeo.com/76979871?share=copy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Parse(tt.link)
			assert.True(t, ok)
			assert.Equal(t, ProviderVimeo, e.Provider)
			assert.Equal(t, "https://player.vimeo.com/video/76979871", e.EmbedURL)
		})
	}
}

func TestParseEmbedURLsPassThrough(t *testing.T) {
	e, ok := Parse("https://www.youtube.com/embed/abc12345678")
	assert.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/embed/abc12345678", e.EmbedURL)

	e, ok = Parse("https://player.vimeo.com/video/76979871")
	assert.True(t, ok)
	assert.Equal(t, "https://player.vimeo.com/video/76979871", e.EmbedURL)
}

func TestParseUnsupported(t *testing.T) {
	for _, link := range []string{"", "   ", "https://example.com/video.mp4", "https://youtu.be/short", "not a url"} {
		_, ok := Parse(link)
		assert.False(t, ok, link)
		assert.Empty(t, EmbedURL(link))
	}
}
