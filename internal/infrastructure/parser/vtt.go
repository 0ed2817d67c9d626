package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

var (
	cueTimingRe = regexp.MustCompile(`(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})`)
	voiceTagRe  = regexp.MustCompile(`^<v(?:\.[^ >]*)? ([^>]+)>(.*?)(?:</v>)?$`)
)

func parseVTT(content string) []domain.TranscriptSegment {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var out []domain.TranscriptSegment
	for i := 0; i < len(lines); i++ {
		m := cueTimingRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		start := vttSeconds(m[1], m[2], m[3], m[4])
		end := vttSeconds(m[5], m[6], m[7], m[8])

		var text []string
		for i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next == "" || cueTimingRe.MatchString(next) {
				break
			}
			text = append(text, next)
			i++
		}

		full := strings.Join(text, " ")
		var speaker *string
		if vm := voiceTagRe.FindStringSubmatch(full); vm != nil {
			name := strings.TrimSpace(vm[1])
			speaker = &name
			full = strings.TrimSpace(vm[2])
		} else {
			speaker, full = splitSpeaker(full)
		}
		if full == "" {
			continue
		}

		out = append(out, domain.TranscriptSegment{
			Speaker:   speaker,
			Text:      full,
			StartTime: domain.FloatPtr(start),
			EndTime:   domain.FloatPtr(end),
		})
	}
	return out
}

func vttSeconds(hours, minutes, seconds, millis string) float64 {
	h, _ := strconv.Atoi(strings.TrimSuffix(hours, ":"))
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)
	return float64(h*3600+m*60+s) + float64(ms)/1000
}
