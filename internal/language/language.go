package language

import "strings"

// Language is a supported recognition language.
type Language struct {
	Tag        string // BCP-47 tag (e.g., "en-US", "ru-RU")
	Name       string // English name
	NativeName string
}

// Auto is used when the user lets the backend detect the language.
var Auto = Language{Tag: "", Name: "Auto-detect"}

var languages = []Language{
	{Tag: "en-US", Name: "English (US)", NativeName: "English"},
	{Tag: "en-GB", Name: "English (UK)", NativeName: "English"},
	{Tag: "ru-RU", Name: "Russian", NativeName: "Русский"},
	{Tag: "de-DE", Name: "German", NativeName: "Deutsch"},
	{Tag: "fr-FR", Name: "French", NativeName: "Français"},
	{Tag: "es-ES", Name: "Spanish", NativeName: "Español"},
	{Tag: "it-IT", Name: "Italian", NativeName: "Italiano"},
	{Tag: "pt-BR", Name: "Portuguese (Brazil)", NativeName: "Português"},
	{Tag: "nl-NL", Name: "Dutch", NativeName: "Nederlands"},
	{Tag: "pl-PL", Name: "Polish", NativeName: "Polski"},
	{Tag: "uk-UA", Name: "Ukrainian", NativeName: "Українська"},
	{Tag: "tr-TR", Name: "Turkish", NativeName: "Türkçe"},
	{Tag: "ja-JP", Name: "Japanese", NativeName: "日本語"},
	{Tag: "ko-KR", Name: "Korean", NativeName: "한국어"},
	{Tag: "zh-CN", Name: "Chinese (Simplified)", NativeName: "中文"},
	{Tag: "ar-SA", Name: "Arabic", NativeName: "العربية"},
	{Tag: "hi-IN", Name: "Hindi", NativeName: "हिन्दी"},
	{Tag: "cs-CZ", Name: "Czech", NativeName: "Čeština"},
	{Tag: "sv-SE", Name: "Swedish", NativeName: "Svenska"},
	{Tag: "fi-FI", Name: "Finnish", NativeName: "Suomi"},
}

// List returns all supported languages, Auto first.
func List() []Language {
	out := make([]Language, 0, len(languages)+1)
	out = append(out, Auto)
	out = append(out, languages...)
	return out
}

// IsValid reports whether tag is empty (auto) or a supported BCP-47 tag.
func IsValid(tag string) bool {
	if tag == "" {
		return true
	}
	for _, l := range languages {
		if l.Tag == tag {
			return true
		}
	}
	return false
}

// VendorTag normalizes a tag for the cloud vendors, which want a full
// BCP-47 tag. Bare primary subtags get their conventional region.
func VendorTag(tag string) string {
	switch {
	case tag == "":
		return ""
	case strings.Contains(tag, "-"):
		return tag
	case tag == "ru":
		return "ru-RU"
	case tag == "en":
		return "en-US"
	default:
		// Covers de -> de-DE, fr -> fr-FR, it -> it-IT and similar.
		return tag + "-" + strings.ToUpper(tag)
	}
}

// WhisperCode reduces a tag to the primary subtag whisper models expect
// ("en-US" -> "en"); empty means auto-detect.
func WhisperCode(tag string) string {
	if tag == "" {
		return ""
	}
	if i := strings.Index(tag, "-"); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}
