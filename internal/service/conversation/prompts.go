package conversation

import "github.com/refloapp/reflo/backend/internal/model/settings"

// listenerSystemPrompt frames every reply request. The model is a listening
// friend, not an assistant.
const listenerSystemPrompt = "I am going to tell you my day. Act like a listening friend. Respond appropriately."

// fallbackReply is returned when the model answers with an absent or empty
// body instead of failing outright.
const fallbackReply = "Error getting response"

type dayBucket int

const (
	morning dayBucket = iota
	afternoon
	evening
)

// bucketForHour maps a wall-clock hour onto the three greeting buckets:
// before noon, before 18:00, otherwise.
func bucketForHour(hour int) dayBucket {
	switch {
	case hour < 12:
		return morning
	case hour < 18:
		return afternoon
	default:
		return evening
	}
}

var greetings = map[settings.Language][3]string{
	settings.LanguageEnglish: {
		morning:   "Good morning. How has your day started?",
		afternoon: "Good afternoon. How is your day going so far?",
		evening:   "Good evening. How was your day today?",
	},
	settings.LanguageIndonesian: {
		morning:   "Selamat pagi. Bagaimana harimu dimulai?",
		afternoon: "Selamat siang. Bagaimana harimu sejauh ini?",
		evening:   "Selamat malam. Bagaimana harimu hari ini?",
	},
	settings.LanguageChinese: {
		morning:   "早上好。今天是怎么开始的？",
		afternoon: "下午好。今天到现在过得如何？",
		evening:   "晚上好。今天一天过得怎么样？",
	},
}

// Greeting returns the opening-prompt text for an hour and language. Unknown
// languages fall back to English.
func Greeting(hour int, language settings.Language) string {
	table, ok := greetings[language]
	if !ok {
		table = greetings[settings.LanguageEnglish]
	}
	return table[bucketForHour(hour)]
}
