package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

const answerRules = `You are a meeting intelligence assistant. Answer the question using only the meeting evidence below.

Rules:
- Only answer from the provided evidence. If the answer is not in the evidence, say so.
- Cite your sources using [Source N] notation.
- Include speaker names when relevant.
- Be concise and direct.`

const noEvidenceRules = `You are a meeting intelligence assistant.

No relevant content was found in the meeting transcripts for this question.
Tell the user that no relevant meeting content was found. Do not guess and do not invent an answer.`

func buildChunkPrompt(question string, results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return buildNoEvidencePrompt(question)
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[Source %d] %s", i+1, speakerLabel(r.Chunk.Speaker))
		if r.Chunk.StartTime != nil {
			fmt.Fprintf(&b, " [%.1fs]", *r.Chunk.StartTime)
		}
		if r.Chunk.MeetingTitle != "" {
			fmt.Fprintf(&b, " (meeting: %s)", r.Chunk.MeetingTitle)
		} else if r.Chunk.MeetingID != "" {
			fmt.Fprintf(&b, " (meeting: %s)", r.Chunk.MeetingID)
		}
		fmt.Fprintf(&b, ": %s\n\n", r.Chunk.Content)
	}

	return fmt.Sprintf("%s\n\nContext from meeting transcripts:\n\n%s\nQuestion: %s\n", answerRules, b.String(), question)
}

func buildItemPrompt(question string, items []domain.ExtractedItem) string {
	if len(items) == 0 {
		return buildNoEvidencePrompt(question)
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "[Source %d] %s: %s", i+1, itemTypeLabels[item.ItemType], item.Content)
		if item.Assignee != nil && *item.Assignee != "" {
			fmt.Fprintf(&b, " (assignee: %s)", *item.Assignee)
		}
		if item.DueDate != nil && *item.DueDate != "" {
			fmt.Fprintf(&b, " (due: %s)", *item.DueDate)
		}
		if item.Speaker != nil && *item.Speaker != "" {
			fmt.Fprintf(&b, " (speaker: %s)", *item.Speaker)
		}
		fmt.Fprintf(&b, " (meeting: %s)\n", item.MeetingID)
	}

	return fmt.Sprintf("%s\n\nExtracted meeting items:\n\n%s\nQuestion: %s\n", answerRules, b.String(), question)
}

func buildNoEvidencePrompt(question string) string {
	return fmt.Sprintf("%s\n\nQuestion: %s\n", noEvidenceRules, question)
}

func speakerLabel(speaker *string) string {
	if speaker == nil || *speaker == "" {
		return "Unknown"
	}
	return *speaker
}
