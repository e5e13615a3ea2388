package domain

// QualityProfile maps a quality tier to its encoding settings. Used by both
// stream creation and quality changes to normalize the bitrate regardless of
// client-supplied values.
type QualityProfile struct {
	Bitrate     int    `json:"bitrate"` // kbps
	Resolution  string `json:"resolution"`
	FPS         int    `json:"fps"`
	Codec       string `json:"codec"`
	Description string `json:"description"`
}

var qualityProfiles = map[Quality]QualityProfile{
	Quality1080p: {Bitrate: 8000, Resolution: "1920x1080", FPS: 60, Codec: "H.264", Description: "Full HD"},
	Quality4K:    {Bitrate: 25000, Resolution: "3840x2160", FPS: 60, Codec: "H.265", Description: "Ultra HD 4K"},
	Quality8K:    {Bitrate: 50000, Resolution: "7680x4320", FPS: 60, Codec: "H.265", Description: "Ultra HD 8K"},
	Quality20K:   {Bitrate: 100000, Resolution: "19200x10800", FPS: 120, Codec: "AV1", Description: "Experimental 20K"},
}

// ProfileFor returns the static profile for a quality tier.
func ProfileFor(q Quality) (QualityProfile, bool) {
	p, ok := qualityProfiles[q]
	return p, ok
}

// Qualities lists the supported tiers.
func Qualities() []Quality {
	return []Quality{Quality1080p, Quality4K, Quality8K, Quality20K}
}
