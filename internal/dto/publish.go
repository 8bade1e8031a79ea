package dto

// PublishRequest names the week being published. An empty week_start lets
// the draft's own cycle week drive the publish.
type PublishRequest struct {
	WeekStart string `json:"week_start"`
}

// PublishBackup describes the snapshot taken before promotion.
type PublishBackup struct {
	Path      string `json:"path"`
	WeekStart string `json:"week_start"`
}

// PublishedInfo summarises the promoted official document.
type PublishedInfo struct {
	Version  int `json:"version"`
	Sessions int `json:"sessions"`
}

// NextDraftInfo summarises the rolled-forward draft.
type NextDraftInfo struct {
	WeekStart string `json:"week_start"`
	Revision  int    `json:"revision"`
}

// PublishResult is returned by the publish endpoint.
type PublishResult struct {
	Backup    PublishBackup `json:"backup"`
	Published PublishedInfo `json:"published"`
	Next      NextDraftInfo `json:"next"`
}
