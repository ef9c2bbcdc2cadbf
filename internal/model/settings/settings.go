package settings

import "fmt"

// Theme selects the app-wide color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Language selects the journaling locale. It drives the opening prompt and
// the language the topic summarizer answers in.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageIndonesian Language = "id"
	LanguageChinese    Language = "zh"
)

// DefaultTheme and DefaultLanguage apply on first run or when the stored
// value does not validate.
const (
	DefaultTheme    = ThemeDark
	DefaultLanguage = LanguageEnglish
)

// Settings holds the two user preferences the journal core depends on.
type Settings struct {
	Theme    Theme    `json:"theme"`
	Language Language `json:"language"`
}

// Defaults returns the settings used before the user picked anything.
func Defaults() Settings {
	return Settings{Theme: DefaultTheme, Language: DefaultLanguage}
}

// ParseTheme validates a stored or submitted theme value.
func ParseTheme(raw string) (Theme, error) {
	switch Theme(raw) {
	case ThemeDark, ThemeLight:
		return Theme(raw), nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

// ParseLanguage validates a stored or submitted language value.
func ParseLanguage(raw string) (Language, error) {
	switch Language(raw) {
	case LanguageEnglish, LanguageIndonesian, LanguageChinese:
		return Language(raw), nil
	default:
		return "", fmt.Errorf("unknown language %q", raw)
	}
}

// Locale returns the BCP 47 tag matching the language, for display formatting.
func (l Language) Locale() string {
	switch l {
	case LanguageIndonesian:
		return "id-ID"
	case LanguageChinese:
		return "zh-CN"
	default:
		return "en-GB"
	}
}
