package chunking

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/meeting-assistant/internal/core/domain"
)

func seg(speaker string, text string, start, end float64) domain.TranscriptSegment {
	return domain.TranscriptSegment{
		Speaker:   domain.StringPtr(speaker),
		Text:      text,
		StartTime: domain.FloatPtr(start),
		EndTime:   domain.FloatPtr(end),
	}
}

func budgetMeeting() []domain.TranscriptSegment {
	return []domain.TranscriptSegment{
		seg("Alice", "We should cut the budget by 10%", 0, 5),
		seg("Bob", "I disagree, that's too aggressive", 5, 10),
	}
}

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i%3) + string(rune('a'+i%26))
	}
	return strings.Join(words, " ")
}

func TestSpeakerTurnKeepsOneChunkPerSpeaker(t *testing.T) {
	chunks, err := NewChunker(500, 50).Chunk(budgetMeeting(), domain.ChunkingSpeakerTurn)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	alice, bob := chunks[0], chunks[1]
	if alice.Speaker == nil || *alice.Speaker != "Alice" || alice.Content != "We should cut the budget by 10%" {
		t.Fatalf("unexpected first chunk: %+v", alice)
	}
	if *alice.StartTime != 0 || *alice.EndTime != 5 {
		t.Fatalf("unexpected alice timing: %v-%v", *alice.StartTime, *alice.EndTime)
	}
	if bob.Speaker == nil || *bob.Speaker != "Bob" || bob.Content != "I disagree, that's too aggressive" {
		t.Fatalf("unexpected second chunk: %+v", bob)
	}
	if *bob.StartTime != 5 || *bob.EndTime != 10 {
		t.Fatalf("unexpected bob timing: %v-%v", *bob.StartTime, *bob.EndTime)
	}
	if alice.ChunkIndex != 0 || bob.ChunkIndex != 1 {
		t.Fatalf("expected indexes 0,1 got %d,%d", alice.ChunkIndex, bob.ChunkIndex)
	}
}

func TestNaiveConcatenatesAcrossSpeakers(t *testing.T) {
	chunks, err := NewChunker(500, 50).Chunk(budgetMeeting(), domain.ChunkingNaive)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "We should cut the budget by 10% I disagree, that's too aggressive"
	if chunks[0].Content != want {
		t.Fatalf("unexpected content %q", chunks[0].Content)
	}
	if chunks[0].Speaker != nil || chunks[0].StartTime != nil || chunks[0].EndTime != nil {
		t.Fatalf("naive chunk must not carry speaker or timing: %+v", chunks[0])
	}
	if chunks[0].Strategy != domain.ChunkingNaive {
		t.Fatalf("expected naive strategy tag, got %s", chunks[0].Strategy)
	}
}

func TestSpeakerTurnMergesConsecutiveSegments(t *testing.T) {
	segments := []domain.TranscriptSegment{
		seg("Alice", "first", 0, 2),
		seg("Alice", "second", 2, 4),
		seg("Bob", "third", 4, 6),
		seg("Alice", "fourth", 6, 8),
	}
	chunks, err := NewChunker(500, 0).Chunk(segments, domain.ChunkingSpeakerTurn)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(chunks))
	}
	if chunks[0].Content != "first second" || *chunks[0].StartTime != 0 || *chunks[0].EndTime != 4 {
		t.Fatalf("unexpected merged turn: %+v", chunks[0])
	}
	if *chunks[2].Speaker != "Alice" {
		t.Fatalf("a later turn by the same speaker must be a new chunk")
	}
}

func TestSpeakerTurnSplitsLongTurnWithinSpeaker(t *testing.T) {
	segments := []domain.TranscriptSegment{
		seg("Alice", numberedWords(25), 0, 60),
		seg("Bob", "short reply", 60, 62),
	}
	chunks, err := NewChunker(10, 2).Chunk(segments, domain.ChunkingSpeakerTurn)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	// 25 words, window 10, step 8: starts 0, 8, 16 -> 3 alice chunks, then bob.
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for _, c := range chunks[:3] {
		if c.Speaker == nil || *c.Speaker != "Alice" {
			t.Fatalf("split chunk lost speaker: %+v", c)
		}
		if *c.StartTime != 0 || *c.EndTime != 60 {
			t.Fatalf("split chunk must keep turn timing, got %v-%v", *c.StartTime, *c.EndTime)
		}
		if len(strings.Fields(c.Content)) > 10 {
			t.Fatalf("chunk exceeds max unit size: %q", c.Content)
		}
	}
	if chunks[3].Content != "short reply" {
		t.Fatalf("bob text merged into alice chunks: %+v", chunks[3])
	}
}

func TestSpeakerPreservationInvariant(t *testing.T) {
	segments := []domain.TranscriptSegment{
		{Text: "no label one"},
		{Text: "no label two"},
		seg("Carol", "labelled", 1, 2),
		{Speaker: domain.StringPtr("  "), Text: "blank label"},
	}
	chunks, err := NewChunker(500, 0).Chunk(segments, domain.ChunkingSpeakerTurn)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Speaker != nil || chunks[0].Content != "no label one no label two" {
		t.Fatalf("unlabelled segments must group with null speaker: %+v", chunks[0])
	}
	if chunks[1].Speaker == nil {
		t.Fatalf("labelled segment lost speaker")
	}
	if chunks[2].Speaker != nil {
		t.Fatalf("blank speaker must be treated as null")
	}

	naive, _ := NewChunker(3, 1).Chunk(segments, domain.ChunkingNaive)
	for _, c := range naive {
		if c.Speaker != nil {
			t.Fatalf("naive chunk carries speaker: %+v", c)
		}
	}
}

func TestChunkIndexesAreZeroBasedAndIncreasing(t *testing.T) {
	segments := []domain.TranscriptSegment{
		seg("Alice", numberedWords(40), 0, 10),
		seg("Bob", numberedWords(15), 10, 20),
	}
	for _, strategy := range []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn} {
		chunks, err := NewChunker(8, 3).Chunk(segments, strategy)
		if err != nil {
			t.Fatalf("Chunk(%s) error = %v", strategy, err)
		}
		for i, c := range chunks {
			if c.ChunkIndex != i {
				t.Fatalf("%s: expected index %d, got %d", strategy, i, c.ChunkIndex)
			}
			if c.Strategy != strategy {
				t.Fatalf("%s: wrong strategy tag %s", strategy, c.Strategy)
			}
		}
	}
}

func TestChunkingIsDeterministic(t *testing.T) {
	segments := []domain.TranscriptSegment{
		seg("Alice", numberedWords(33), 0, 10),
		seg("Bob", numberedWords(7), 10, 20),
		seg("Alice", numberedWords(12), 20, 30),
	}
	chunker := NewChunker(9, 2)
	for _, strategy := range []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn} {
		first, _ := chunker.Chunk(segments, strategy)
		second, _ := chunker.Chunk(segments, strategy)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s: chunking is not deterministic", strategy)
		}
	}
}

func TestNaiveWindowsCoverTextWithoutGaps(t *testing.T) {
	segments := []domain.TranscriptSegment{
		{Text: numberedWords(13)},
		{Text: numberedWords(11)},
	}
	chunker := NewChunker(6, 2)
	chunks, err := chunker.Chunk(segments, domain.ChunkingNaive)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	var rebuilt []string
	for i, c := range chunks {
		words := strings.Fields(c.Content)
		if i > 0 {
			words = words[chunker.Overlap:]
		}
		rebuilt = append(rebuilt, words...)
	}

	want := strings.Fields(segments[0].Text + " " + segments[1].Text)
	if !reflect.DeepEqual(rebuilt, want) {
		t.Fatalf("reconstruction mismatch:\n got %v\nwant %v", rebuilt, want)
	}
}

func TestEmptyTranscriptYieldsNoChunks(t *testing.T) {
	chunker := NewChunker(500, 50)
	for _, strategy := range []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn} {
		chunks, err := chunker.Chunk(nil, strategy)
		if err != nil {
			t.Fatalf("Chunk(nil) error = %v", err)
		}
		if len(chunks) != 0 {
			t.Fatalf("expected zero chunks, got %d", len(chunks))
		}
		chunks, _ = chunker.Chunk([]domain.TranscriptSegment{{Text: "   "}}, strategy)
		if len(chunks) != 0 {
			t.Fatalf("whitespace-only transcript must yield zero chunks, got %d", len(chunks))
		}
	}
}

func TestChunkRejectsUnknownStrategy(t *testing.T) {
	_, err := NewChunker(500, 50).Chunk(budgetMeeting(), domain.ChunkingStrategy("semantic"))
	if !domain.IsKind(err, domain.ErrMalformedStrategyConfig) {
		t.Fatalf("expected ErrMalformedStrategyConfig, got %v", err)
	}
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	c := NewChunker(8, 8)
	if c.Overlap != 2 {
		t.Fatalf("expected overlap clamped to 2, got %d", c.Overlap)
	}
	c = NewChunker(0, -1)
	if c.MaxUnitSize != 500 || c.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
