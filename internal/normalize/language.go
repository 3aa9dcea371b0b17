// internal/normalize/language.go
package normalize

import (
	"strings"

	"msme-insights/internal/models"
)

// Language tags produced by the detector.
const (
	LangEnglish  = "english"
	LangHindi    = "hindi"
	LangHinglish = "hinglish"
)

// scriptRange classifies a message by Unicode code-point ranges. New scripts
// are added here, not in detection logic.
type scriptRange struct {
	Lo, Hi rune
	Tag    string
}

var scriptRanges = []scriptRange{
	{0x0900, 0x097F, LangHindi}, // Devanagari
	{0x0980, 0x09FF, "bengali"},
	{0x0A00, 0x0A7F, "punjabi"}, // Gurmukhi
	{0x0A80, 0x0AFF, "gujarati"},
	{0x0B80, 0x0BFF, "tamil"},
	{0x0C00, 0x0C7F, "telugu"},
	{0x0C80, 0x0CFF, "kannada"},
	{0x0D00, 0x0D7F, "malayalam"},
}

// hinglishCues are romanized-Hindi function and domain words. A Latin-script
// message containing at least one cue alongside other Latin words is
// classified as code-switched Hinglish.
var hinglishCues = map[string]struct{}{
	"hai": {}, "hain": {}, "tha": {}, "thi": {}, "ho": {}, "hoon": {}, "hun": {},
	"nahi": {}, "nahin": {}, "kya": {}, "kyun": {}, "kaise": {}, "kitna": {}, "kitne": {},
	"mera": {}, "meri": {}, "mere": {}, "apna": {}, "apni": {}, "hamara": {},
	"karta": {}, "karti": {}, "karte": {}, "karna": {}, "chahiye": {}, "batao": {}, "bataiye": {},
	"dukaan": {}, "dukan": {}, "kirana": {}, "paisa": {}, "paise": {}, "rupaye": {},
	"chota": {}, "chhota": {}, "bada": {}, "thoda": {}, "bahut": {}, "accha": {}, "acha": {},
	"aur": {}, "lekin": {}, "bhi": {}, "mein": {}, "wala": {}, "wale": {}, "bhai": {},
}

// DetectLanguages classifies each message and aggregates the union of tags in
// stable first-seen order. Non-Latin Indic script wins per message; romanized
// Hindi cues mixed into Latin text mark Hinglish; everything else is English.
func DetectLanguages(messages []models.Message) []string {
	var tags []string
	seen := make(map[string]struct{})

	add := func(tag string) {
		if _, ok := seen[tag]; !ok {
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	for _, msg := range messages {
		for _, tag := range classifyMessage(msg.Content) {
			add(tag)
		}
	}
	return tags
}

func classifyMessage(content string) []string {
	var tags []string
	scriptSeen := make(map[string]struct{})
	hasLatin := false

	for _, r := range content {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLatin = true
			continue
		}
		for _, sr := range scriptRanges {
			if r >= sr.Lo && r <= sr.Hi {
				if _, ok := scriptSeen[sr.Tag]; !ok {
					scriptSeen[sr.Tag] = struct{}{}
					tags = append(tags, sr.Tag)
				}
				break
			}
		}
	}

	if len(tags) > 0 {
		return tags
	}
	if !hasLatin {
		return nil
	}

	cueCount, otherCount := 0, 0
	for _, word := range strings.Fields(strings.ToLower(content)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if word == "" {
			continue
		}
		if _, ok := hinglishCues[word]; ok {
			cueCount++
		} else {
			otherCount++
		}
	}
	if cueCount > 0 && otherCount > 0 {
		return []string{LangHinglish}
	}
	if cueCount > 0 {
		return []string{LangHindi}
	}
	return []string{LangEnglish}
}
