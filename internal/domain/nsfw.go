package domain

import "strings"

var (
	requiredContentWarnings = []string{"adult-content", "explicit-material", "nudity"}

	prohibitedContentWarnings = []string{"illegal-activities", "harmful-content", "non-consensual", "minors"}

	nsfwCategoryKeywords = []string{"adult", "nsfw", "mature", "explicit"}
)

// ValidateNSFWConfig checks an NSFW stream configuration against the static
// content-policy rules. It short-circuits at the first violation and returns
// the reason for that violation. Only meaningful when cfg.IsNSFW is set.
func ValidateNSFWConfig(cfg LiveStreamConfig) (bool, string) {
	if cfg.AgeRestriction != 0 && cfg.AgeRestriction < 18 {
		return false, "age restriction must be at least 18 for NSFW content"
	}

	if !containsAny(cfg.ContentWarnings, requiredContentWarnings) {
		return false, "NSFW content requires at least one content warning: adult-content, explicit-material, or nudity"
	}

	if containsAny(cfg.ContentWarnings, prohibitedContentWarnings) {
		return false, "content warnings include prohibited content"
	}

	if cfg.NSFWLevel == NSFWLevelExplicit && cfg.Privacy != PrivacyPrivate {
		return false, "explicit NSFW streams must be private"
	}

	category := strings.ToLower(cfg.Category)
	for _, keyword := range nsfwCategoryKeywords {
		if strings.Contains(category, keyword) {
			return true, ""
		}
	}
	return false, "NSFW streams require an adult category (adult, nsfw, mature, or explicit)"
}

func containsAny(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if h == n {
				return true
			}
		}
	}
	return false
}
