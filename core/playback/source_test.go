package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSourceID(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		wantID string
		wantOK bool
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link no scheme host only", "https://youtu.be/abc123", "abc123", true},
		{"watch link", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch link extra params", "https://www.youtube.com/watch?v=abc123&t=42s", "abc123", true},
		{"shorts link", "https://www.youtube.com/shorts/xyz789", "xyz789", true},
		{"shorts link trailing slash", "https://www.youtube.com/shorts/xyz789/", "xyz789", true},
		{"short link empty path", "https://youtu.be/", "", false},
		{"watch link missing v", "https://www.youtube.com/watch?t=42s", "", false},
		{"channel page", "https://www.youtube.com/@some-channel", "", false},
		{"unrelated host", "https://vimeo.com/123456", "", false},
		{"not a url", "::::not a url::::", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractSourceID(tt.rawURL)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
