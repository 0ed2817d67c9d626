package ollama

func buildQueryClassificationPrompt(question string) string {
	const maxQuestion = 2000
	if len(question) > maxQuestion {
		question = question[:maxQuestion]
	}

	return `You route questions about meeting transcripts.
Return strict JSON object with keys:
class ("structured" or "open_ended"), item_type ("action_item", "decision", "topic" or ""),
assignee (the person named after "assigned to", or "").
Use "structured" only when the question asks to list or filter action items, decisions or topics by category.
Questions about reasons, opinions, what someone said, who did something, or what happened are "open_ended".
If unsure, answer "open_ended".
No markdown, no extra keys.

Question:
` + question
}
