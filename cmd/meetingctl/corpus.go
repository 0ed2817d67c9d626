package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/meeting-assistant/internal/bootstrap"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/core/ports"
)

type corpus struct {
	// ids maps transcript file names to generated meeting IDs.
	ids map[string]string
}

func loadCorpus(
	ctx context.Context,
	app *bootstrap.LocalApp,
	paths []string,
	format string,
	configs []domain.StrategyConfig,
) (*corpus, error) {
	c := &corpus{ids: make(map[string]string, len(paths))}
	for _, path := range paths {
		key := meetingKey(path)
		if _, dup := c.ids[key]; dup {
			return nil, fmt.Errorf("duplicate transcript name %q", key)
		}
		segments, err := parseFile(ctx, app.Parser, path, format)
		if err != nil {
			return nil, err
		}
		meetingID := uuid.NewString()
		c.ids[key] = meetingID
		app.Index.SetMeetingTitle(meetingID, strings.TrimSuffix(key, filepath.Ext(key)))

		for _, cfg := range configs {
			if _, err := app.IngestUC.Ingest(ctx, meetingID, segments, cfg); err != nil {
				return nil, fmt.Errorf("ingest %s (%s): %w", key, cfg.ChunkingStrategy(), err)
			}
		}
	}
	return c, nil
}

func parseFile(ctx context.Context, parser ports.TranscriptParser, path, format string) ([]domain.TranscriptSegment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	if format == "" {
		format = formatFromPath(path)
	}
	segments, err := parser.Parse(ctx, raw, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return segments, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "vtt":
		return "vtt"
	case "json":
		return "json"
	default:
		return "txt"
	}
}

type itemsFile struct {
	Items []itemEntry `yaml:"items"`
}

type itemEntry struct {
	Meeting    string  `yaml:"meeting"`
	ItemType   string  `yaml:"item_type"`
	Content    string  `yaml:"content"`
	Assignee   *string `yaml:"assignee"`
	DueDate    *string `yaml:"due_date"`
	Speaker    *string `yaml:"speaker"`
	Confidence float64 `yaml:"confidence"`
}

func (c *corpus) loadItems(ctx context.Context, store ports.ExtractedItemStore, path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	grouped, err := c.decodeItems(raw, time.Now().UTC())
	if err != nil {
		return err
	}
	for meetingID, items := range grouped {
		if err := store.ReplaceItems(ctx, meetingID, items); err != nil {
			return err
		}
	}
	return nil
}

func (c *corpus) decodeItems(raw []byte, now time.Time) (map[string][]domain.ExtractedItem, error) {
	var file itemsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	grouped := make(map[string][]domain.ExtractedItem)
	for i, entry := range file.Items {
		meetingID, ok := c.ids[entry.Meeting]
		if !ok {
			return nil, fmt.Errorf("item %d references unknown transcript %q", i, entry.Meeting)
		}
		itemType := domain.ItemType(strings.ToLower(entry.ItemType))
		if !itemType.Valid() {
			return nil, fmt.Errorf("item %d has unknown item_type %q", i, entry.ItemType)
		}
		if strings.TrimSpace(entry.Content) == "" {
			return nil, fmt.Errorf("item %d has empty content", i)
		}
		grouped[meetingID] = append(grouped[meetingID], domain.ExtractedItem{
			ID:         uuid.NewString(),
			MeetingID:  meetingID,
			ItemType:   itemType,
			Content:    entry.Content,
			Assignee:   entry.Assignee,
			DueDate:    entry.DueDate,
			Speaker:    entry.Speaker,
			Confidence: entry.Confidence,
			CreatedAt:  now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return grouped, nil
}

type questionSet struct {
	Questions []questionEntry `yaml:"questions"`
}

type questionEntry struct {
	Question string                 `yaml:"question"`
	Meeting  string                 `yaml:"meeting"`
	Strategy domain.StrategyOptions `yaml:"strategy"`
}

func readQuestionSet(path string) (questionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return questionSet{}, fmt.Errorf("read questions: %w", err)
	}
	return decodeQuestionSet(raw)
}

func decodeQuestionSet(raw []byte) (questionSet, error) {
	var set questionSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return questionSet{}, fmt.Errorf("decode questions: %w", err)
	}
	if len(set.Questions) == 0 {
		return questionSet{}, fmt.Errorf("question set is empty")
	}
	for i, q := range set.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return questionSet{}, fmt.Errorf("question %d is blank", i)
		}
	}
	return set, nil
}
