package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

// Parser decodes stored transcripts into ordered segments.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(_ context.Context, raw []byte, format string) ([]domain.TranscriptSegment, error) {
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse transcript", errors.New("transcript is not valid UTF-8"))
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil, nil
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "txt", "text", "plain_text":
		return parsePlainText(content), nil
	case "vtt":
		return parseVTT(content), nil
	case "json":
		segments, err := parseJSON(content)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse json transcript", err)
		}
		return segments, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse transcript", fmt.Errorf("unsupported transcript format %q", format))
	}
}

// splitSpeaker splits "Speaker: text". A colon must be followed by
// whitespace so timestamps and URLs are not mistaken for labels.
func splitSpeaker(line string) (*string, string) {
	idx := strings.Index(line, ": ")
	if idx <= 0 {
		return nil, line
	}
	speaker := strings.TrimSpace(line[:idx])
	text := strings.TrimSpace(line[idx+2:])
	if speaker == "" || text == "" {
		return nil, line
	}
	return &speaker, text
}

func parsePlainText(content string) []domain.TranscriptSegment {
	var out []domain.TranscriptSegment
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		speaker, text := splitSpeaker(line)
		out = append(out, domain.TranscriptSegment{Speaker: speaker, Text: text})
	}
	return out
}
