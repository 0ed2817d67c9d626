package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

var (
	actionPatterns = compileAll(
		`\baction\s*items?\b`,
		`\btasks?\b`,
		`\bto[\s-]?dos?\b`,
		`\bassigned\b`,
		`\bfollow[\s-]?ups?\b`,
		`\bdeadlines?\b`,
	)
	decisionPatterns = compileAll(
		`\bdecisions?\b`,
		`\bdecide[ds]?\b`,
		`\bagreed\b`,
		`\bagreements?\b`,
		`\bresolved\b`,
		`\bconclusions?\b`,
	)
	topicPatterns = compileAll(
		`\btopics?\b`,
		`\bthemes?\b`,
		`\bsubjects?\b`,
		`\bagenda\b`,
		`\bkey\s*points?\b`,
	)
	// discussedPattern names topics only when no other category matched.
	discussedPattern = regexp.MustCompile(`(?i)\bdiscussed\b`)
	assigneePattern  = regexp.MustCompile(`(?i)\bassigned\s+to\s+([\pL][\pL'.-]*)`)
	// enumerationPatterns ask for a complete listing rather than content.
	enumerationPatterns = compileAll(
		`\blist\s+(all\s+)?(the\s+)?`,
		`\bwhat\s+(were|are)\s+(the\s+)?(main|key)\b`,
		`\bsummarize\s+(the\s+)?`,
		`\b(show|give)\s+me\s+(all\s+)?(the\s+)?`,
		`\ball\s+(the\s+)?(open\s+)?(action|decisions|topics|tasks)`,
	)
	// openEndedPatterns ask about reasons, opinions or what was said.
	openEndedPatterns = compileAll(
		`^\s*(why\b|how\s+(did|does|do|was|were|is|are|come|should|could|would|can)\b)`,
		`^\s*(who|whom|whose)\b`,
		`^\s*(was|were|is|did|does)\b`,
		`\bexplain\b`,
		`\b(reason|reasons|reasoning|rationale)\b`,
		`\b(concerns?|worried|worries)\b`,
		`\b(think|thought|feel|felt|opinions?)\b`,
		`\b(say|says|said|saying)\b`,
		`\bhappened\b`,
		`\b(about|regarding)\b`,
	)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+expr))
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// HeuristicClassifier routes questions by keyword patterns. A question is
// STRUCTURED only when it names a known item category and does not ask for
// reasons, opinions or quotes without also asking for a listing.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (c *HeuristicClassifier) Classify(_ context.Context, question string) domain.RoutedQuery {
	return classifyQuestion(question)
}

func classifyQuestion(question string) domain.RoutedQuery {
	openEnded := domain.RoutedQuery{Class: domain.QueryOpenEnded, Question: question}

	var categories []domain.ItemType
	if matchesAny(actionPatterns, question) {
		categories = append(categories, domain.ItemActionItem)
	}
	if matchesAny(decisionPatterns, question) {
		categories = append(categories, domain.ItemDecision)
	}
	if matchesAny(topicPatterns, question) || (len(categories) == 0 && discussedPattern.MatchString(question)) {
		categories = append(categories, domain.ItemTopic)
	}
	if len(categories) == 0 {
		return openEnded
	}

	if matchesAny(openEndedPatterns, question) && !matchesAny(enumerationPatterns, question) {
		return openEnded
	}

	routed := domain.RoutedQuery{Class: domain.QueryStructured, Question: question}
	if len(categories) == 1 {
		routed.ItemType = categories[0]
	}
	routed.Assignee = assigneeFrom(question)
	return routed
}

// assigneeFrom returns the name after "assigned to", skipping pronouns and
// determiners that do not name a person.
func assigneeFrom(question string) string {
	m := assigneePattern.FindStringSubmatch(question)
	if m == nil {
		return ""
	}
	name := strings.TrimRight(m[1], ".'-")
	switch strings.ToLower(name) {
	case "", "the", "a", "an", "me", "us", "him", "her", "them", "whom", "who", "each", "everyone", "anyone", "someone":
		return ""
	}
	return name
}
