package domain

import "time"

// SongSection is one block of lyrics (verse, chorus, bridge...).
type SongSection struct {
	Label string `json:"label"`
	Lines string `json:"lines"`
}

type Song struct {
	ID        string        `json:"id"`
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	Author    string        `json:"author,omitempty"`
	Key       string        `json:"key,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Sections  []SongSection `json:"sections"`
	VideoURL  string        `json:"video_url,omitempty"`
	SourceURL string        `json:"source_url,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SongVideo is a backing video candidate resolved for a song.
type SongVideo struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}
