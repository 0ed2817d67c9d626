package parser

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

type jsonTranscript struct {
	// AssemblyAI, times in milliseconds.
	Utterances []struct {
		Speaker *string  `json:"speaker"`
		Text    string   `json:"text"`
		Start   *float64 `json:"start"`
		End     *float64 `json:"end"`
	} `json:"utterances"`
	// MeetingBank, times in seconds.
	Transcription []struct {
		SpeakerID *string  `json:"speaker_id"`
		Text      string   `json:"text"`
		StartTime *float64 `json:"start_time"`
		EndTime   *float64 `json:"end_time"`
	} `json:"transcription"`
	Segments []domain.TranscriptSegment `json:"segments"`
}

func parseJSON(content string) ([]domain.TranscriptSegment, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	var doc jsonTranscript
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	var out []domain.TranscriptSegment
	switch {
	case raw["utterances"] != nil:
		for _, u := range doc.Utterances {
			out = append(out, domain.TranscriptSegment{
				Speaker:   u.Speaker,
				Text:      u.Text,
				StartTime: millisToSeconds(u.Start),
				EndTime:   millisToSeconds(u.End),
			})
		}
	case raw["transcription"] != nil:
		for _, t := range doc.Transcription {
			out = append(out, domain.TranscriptSegment{
				Speaker:   t.SpeakerID,
				Text:      t.Text,
				StartTime: t.StartTime,
				EndTime:   t.EndTime,
			})
		}
	case raw["segments"] != nil:
		out = doc.Segments
	default:
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unrecognized transcript layout, keys: %v", keys)
	}
	return out, nil
}

func millisToSeconds(ms *float64) *float64 {
	if ms == nil {
		return nil
	}
	return domain.FloatPtr(*ms / 1000)
}
