package preview

import "safelens/internal/entity"

// Style is a set of CSS declarations for a region overlay.
type Style map[string]string

// FilterStyle is how the overlay previews a filter on an active region.
// Inactive regions are drawn without any effect.
func FilterStyle(filter entity.Filter, active bool) Style {
	if !active {
		return Style{}
	}

	switch filter {
	case entity.FilterBlur:
		return Style{
			"backdropFilter":       "blur(12px)",
			"WebkitBackdropFilter": "blur(12px)",
			"backgroundColor":      "hsl(263 70% 50% / 0.15)",
		}
	case entity.FilterMosaic:
		return Style{
			"background": "repeating-conic-gradient(hsl(263 70% 50% / 0.4) 0% 25%, hsl(263 70% 70% / 0.3) 0% 50%) 50% / 8px 8px",
		}
	case entity.FilterAIRemove:
		return Style{
			"background": "linear-gradient(135deg, hsl(263 70% 50% / 0.3), hsl(280 70% 55% / 0.3))",
		}
	default:
		return Style{}
	}
}
