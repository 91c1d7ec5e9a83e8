package entity

import "time"

// Video is the watchable asset owned by a channel. Only the fields the user
// subsystem reads are modeled here; upload and playback live elsewhere.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	Duration     float64 // seconds
	VideoURL     string
	ThumbnailURL string
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VideoOwner is the restricted view of a video's owning channel exposed in
// watch-history entries.
type VideoOwner struct {
	FullName  string `json:"fullname"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchHistoryEntry is one watched video joined with its owner.
type WatchHistoryEntry struct {
	VideoID      string     `json:"videoId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Duration     float64    `json:"duration"`
	VideoURL     string     `json:"url"`
	ThumbnailURL string     `json:"thumbnail"`
	Views        int64      `json:"views"`
	WatchedAt    time.Time  `json:"watchedAt"`
	Owner        VideoOwner `json:"owner"`
}
