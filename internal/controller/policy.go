package controller

// ModePolicy selects the depth/width/budget knobs for one investigation
// pass (spec §4.8 step 5), grounded on original_source/backend/mode_router.py's
// per-mode policy object (light_depth/light_lines/compare_enabled/
// compare_depth/deep_depth/deep_lines/max_time_s).
type ModePolicy struct {
	Name          string
	LightDepth    int
	LightLines    int
	CompareEnabled bool
	CompareDepth  int
	DeepDepth     int
	DeepLines     int
	MaxTimeS      float64
}

// RoutePolicy picks a ModePolicy by controller mode (spec §4.8 step 5).
func RoutePolicy(mode string) ModePolicy {
	switch mode {
	case "play":
		return ModePolicy{Name: "play", LightDepth: 10, LightLines: 1, CompareEnabled: false, DeepDepth: 14, DeepLines: 1, MaxTimeS: 8}
	case "review":
		return ModePolicy{Name: "review", LightDepth: 12, LightLines: 3, CompareEnabled: true, CompareDepth: 14, DeepDepth: 18, DeepLines: 3, MaxTimeS: 24}
	case "analyze":
		return ModePolicy{Name: "analyze", LightDepth: 14, LightLines: 3, CompareEnabled: true, CompareDepth: 16, DeepDepth: 20, DeepLines: 3, MaxTimeS: 20}
	default: // "discuss"
		return ModePolicy{Name: "discuss", LightDepth: 10, LightLines: 2, CompareEnabled: false, DeepDepth: 16, DeepLines: 2, MaxTimeS: 15}
	}
}
