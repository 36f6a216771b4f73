package imagegen

import "strings"

// settingMapping maps a keyword found in the story to a background scene
// phrase. The list is scanned in order and the first case-insensitive
// substring match wins, so order is priority.
type settingMapping struct {
	needle string
	phrase string
}

var settingTable = []settingMapping{
	{"forest", "a mystical enchanted forest"},
	{"castle", "a majestic medieval castle"},
	{"garden", "a beautiful magical garden with a glowing door"},
	{"cave", "a mysterious glowing cave"},
	{"mountain", "towering snow-capped mountains"},
	{"beach", "a serene beach with golden sand"},
	{"city", "a bustling fantasy city"},
	{"space", "vast cosmic space with stars and nebulae"},
}

const defaultSetting = "a magical fantasy landscape"

// ExtractSetting derives the background scene description from story text.
func ExtractSetting(story string) string {
	lower := strings.ToLower(story)
	for _, m := range settingTable {
		if strings.Contains(lower, m.needle) {
			return m.phrase
		}
	}
	return defaultSetting
}
