package generator

import (
	"fmt"

	"ai-podcaster/internal/models"
)

var languageNames = map[string]string{
	"fr": "French",
	"en": "English",
}

const jsonContract = `Respond with a single JSON object and nothing else:
{"title": "<episode title>", "summary": "<one or two sentence summary>", "segments": [{"speaker": "<speaker tag>", "text": "<spoken text>", "pause_after_sec": <int>}]}`

// systemPrompt shapes the model call per intent. The orchestration is
// shared; this is where the three pipelines actually differ.
func systemPrompt(intent models.Intent, language string) string {
	lang := languageNames[language]
	switch intent {
	case models.IntentWellness:
		return fmt.Sprintf(`You write guided wellness and meditation podcast scripts in %s.
Write a calm, slow-paced monologue of roughly 10 minutes when read aloud.
Use short sentences and generous pauses between thoughts.
Every segment must use the speaker tag "host". Set pause_after_sec to 2-5 between breathing or reflection moments, 0 elsewhere.
%s`, lang, jsonContract)
	case models.IntentBriefing:
		return fmt.Sprintf(`You write informative briefing podcast scripts in %s.
Write a clear, engaging monologue of roughly 3 minutes when read aloud that summarizes the requested topic.
Open with what the episode covers, develop the key points, close with a short takeaway.
Every segment must use the speaker tag "host". Set pause_after_sec to 0 or 1.
%s`, lang, jsonContract)
	default: // dialogue
		return fmt.Sprintf(`You write two-host conversational podcast scripts in %s.
Write a lively dialogue of roughly 4 minutes when read aloud discussing the requested topic.
Alternate between the speaker tags "speaker_1" and "speaker_2"; both must speak several times and bring distinct viewpoints.
Set pause_after_sec to 0 or 1.
%s`, lang, jsonContract)
	}
}
