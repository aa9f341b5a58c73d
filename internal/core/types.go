package core

import "time"

// ComposeDraft is the text a user is composing plus the platforms it targets.
type ComposeDraft struct {
	Description         string       `json:"description"`
	Hashtags            []string     `json:"hashtags"`
	URL                 string       `json:"url"`
	SelectedPlatformIDs []string     `json:"selected_platform_ids"`
	LinkPreview         *LinkPreview `json:"link_preview,omitempty"`
	LastModified        time.Time    `json:"last_modified"`
}

// PlatformStatus is derived per platform and never persisted.
type PlatformStatus struct {
	PlatformID     string  `json:"platform_id"`
	CharacterCount int     `json:"character_count"`
	CharLimit      int     `json:"char_limit"`
	IsOverLimit    bool    `json:"is_over_limit"`
	HashtagWarning bool    `json:"hashtag_warning"`
	Percentage     float64 `json:"percentage"`
}

// ImageDimensions is only set when both sides are positive.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LinkPreview holds metadata extracted from a fetched page.
type LinkPreview struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Image           string           `json:"image"`
	ImageDimensions *ImageDimensions `json:"imageDimensions,omitempty"`
	SiteName        string           `json:"siteName,omitempty"`
	Type            string           `json:"type,omitempty"`
	URL             string           `json:"url"`
}

// ContentVariation is a named snapshot of draft content.
type ContentVariation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Hashtags    []string  `json:"hashtags"`
	CreatedAt   time.Time `json:"created_at"`
}

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Preferences are per-profile user settings.
type Preferences struct {
	DefaultPlatforms  []string `json:"default_platforms"`
	LowercaseHashtags bool     `json:"lowercase_hashtags"`
	Theme             Theme    `json:"theme"`
}

// Visit is the session and device metadata sent along with a preview request.
type Visit struct {
	SessionID        string    `json:"session_id,omitempty"`
	DeviceType       string    `json:"device_type,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	ScreenResolution string    `json:"screen_resolution,omitempty"`
	Language         string    `json:"language,omitempty"`
	Referrer         string    `json:"referrer,omitempty"`
	TargetURL        string    `json:"target_url,omitempty"`
	RemoteAddr       string    `json:"remote_addr,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
