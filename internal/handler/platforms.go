package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/platform"
	"github.com/clipforge/api/pkg/response"
)

type PlatformHandler struct{}

func NewPlatformHandler() *PlatformHandler {
	return &PlatformHandler{}
}

type platformPreset struct {
	platform.Profile
	SuggestedCaption string `json:"suggestedCaption,omitempty"`
}

// List handles GET /api/platforms
func (h *PlatformHandler) List(c *fiber.Ctx) error {
	profiles := platform.Profiles()
	presets := make([]platformPreset, 0, len(profiles))
	for _, p := range profiles {
		presets = append(presets, platformPreset{
			Profile:          p,
			SuggestedCaption: platform.SuggestedCaption(p.Name),
		})
	}
	return response.OK(c, presets)
}
