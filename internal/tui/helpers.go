package tui

var backendDisplayNames = map[string]string{
	"offline": "Offline (whisper.cpp)",
	"google":  "Google Speech",
	"azure":   "Azure Speech",
	"yandex":  "Yandex SpeechKit",
	"openai":  "OpenAI Whisper",
}

func backendDisplayName(id string) string {
	if name, ok := backendDisplayNames[id]; ok {
		return name
	}
	return id
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
