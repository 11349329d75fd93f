// Package platform maps distribution platform names to output profiles.
package platform

// Profile is a named output configuration for a target platform.
type Profile struct {
	Name                string   `json:"name"`
	Width               int      `json:"width"`
	Height              int      `json:"height"`
	DefaultCallToAction string   `json:"defaultCallToAction"`
	SuggestedTags       []string `json:"suggestedTags"`
}

// DefaultWidth and DefaultHeight apply to unknown platform names.
const (
	DefaultWidth  = 1080
	DefaultHeight = 1920
)

// profiles is constructed once and never mutated at runtime.
var profiles = map[string]Profile{
	"YouTube": {
		Name:                "YouTube",
		Width:               1080,
		Height:              1920,
		DefaultCallToAction: "Like and Subscribe!",
		SuggestedTags:       []string{"#youtube", "#subscribe", "#viral"},
	},
	"YouTube Standard": {
		Name:                "YouTube Standard",
		Width:               1920,
		Height:              1080,
		DefaultCallToAction: "Like and Subscribe!",
		SuggestedTags:       []string{"#youtube", "#subscribe", "#viral"},
	},
	"TikTok": {
		Name:                "TikTok",
		Width:               1080,
		Height:              1920,
		DefaultCallToAction: "Follow for more!",
		SuggestedTags:       []string{"#fyp", "#viral", "#foryou"},
	},
	"Instagram": {
		Name:                "Instagram",
		Width:               1080,
		Height:              1920,
		DefaultCallToAction: "Link in bio!",
		SuggestedTags:       []string{"#reels", "#instagram", "#viral"},
	},
}

// Resolve returns the profile for a platform name. Unknown or empty names
// resolve to the default 1080x1920 profile; resolution never fails.
func Resolve(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return Profile{Name: name, Width: DefaultWidth, Height: DefaultHeight}
}

// Profiles returns all known platform profiles.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, name := range []string{"YouTube", "YouTube Standard", "TikTok", "Instagram"} {
		out = append(out, profiles[name])
	}
	return out
}

// SuggestedCaption returns ready-to-paste caption text for a platform.
func SuggestedCaption(name string) string {
	switch name {
	case "YouTube", "YouTube Standard":
		return "Don't forget to like and subscribe!\n#youtube #content"
	case "TikTok":
		return "Follow for more!\n#fyp #viral #content"
	case "Instagram":
		return "Link in bio!\n#reels #instagram #content"
	default:
		return ""
	}
}
