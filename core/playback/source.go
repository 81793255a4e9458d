package playback

import (
	"net/url"
	"strings"
)

// ExtractSourceID resolves the embeddable source ID from a hosted video URL.
// Accepted shapes:
//
//	https://youtu.be/<id>
//	https://www.youtube.com/watch?v=<id>
//	https://www.youtube.com/shorts/<id>
//
// Any other shape yields ok == false and playback must not initialize.
func ExtractSourceID(rawURL string) (id string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	if strings.Contains(u.Hostname(), "youtu.be") {
		id = strings.TrimPrefix(u.Path, "/")
		return id, id != ""
	}
	if strings.HasPrefix(u.Path, "/watch") {
		id = u.Query().Get("v")
		return id, id != ""
	}
	if strings.HasPrefix(u.Path, "/shorts/") {
		parts := strings.Split(u.Path, "/")
		if len(parts) >= 3 {
			id = parts[2]
		}
		return id, id != ""
	}
	return "", false
}
