package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/meeting-assistant/internal/bootstrap"
	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/core/domain"
	"github.com/kirillkom/meeting-assistant/internal/observability/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	format            string
	chunkingStrategy  string
	retrievalStrategy string
	topK              int
	itemsFile         string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "meetingctl",
		Short:        "Run the meeting retrieval pipeline locally against an in-memory index",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.format, "format", "", "transcript format (txt, vtt, json); derived from the file extension when empty")
	root.PersistentFlags().StringVar(&flags.chunkingStrategy, "chunking", "", "chunking strategy (naive, speaker_turn)")
	root.PersistentFlags().StringVar(&flags.retrievalStrategy, "retrieval", "", "retrieval strategy (semantic, hybrid)")
	root.PersistentFlags().IntVar(&flags.topK, "top-k", 0, "number of chunks to retrieve")

	root.AddCommand(newChunkCmd(flags), newAskCmd(flags), newCompareCmd(flags))
	return root
}

func newChunkCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chunk [transcript]",
		Short: "Parse and chunk a transcript without embedding it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newLocalApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			strategy, err := flags.strategy(app.DefaultStrategy)
			if err != nil {
				return err
			}
			segments, err := parseFile(cmd.Context(), app.Parser, args[0], flags.format)
			if err != nil {
				return err
			}
			chunks, err := app.Chunker.Chunk(segments, strategy.ChunkingStrategy())
			if err != nil {
				return err
			}
			domain.AssignIDs(meetingKey(args[0]), chunks)
			return printJSON(cmd.OutOrStdout(), chunks)
		},
	}
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "ask [transcript...]",
		Short: "Index transcripts and answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" {
				return fmt.Errorf("--question is required")
			}
			app, err := newLocalApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			strategy, err := flags.strategy(app.DefaultStrategy)
			if err != nil {
				return err
			}
			corpus, err := loadCorpus(cmd.Context(), app, args, flags.format, []domain.StrategyConfig{strategy})
			if err != nil {
				return err
			}
			if err := corpus.loadItems(cmd.Context(), app.Items, flags.itemsFile); err != nil {
				return err
			}
			answer, err := app.QueryUC.Ask(cmd.Context(), question, strategy, domain.SearchFilter{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), answer)
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	cmd.Flags().StringVar(&flags.itemsFile, "items", "", "YAML file with extracted items keyed by transcript file name")
	return cmd
}

func newCompareCmd(flags *rootFlags) *cobra.Command {
	var questionsFile string
	cmd := &cobra.Command{
		Use:   "compare [transcript...]",
		Short: "Index transcripts under every chunking strategy and compare retrieval per question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if questionsFile == "" {
				return fmt.Errorf("--questions is required")
			}
			set, err := readQuestionSet(questionsFile)
			if err != nil {
				return err
			}
			app, err := newLocalApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			base, err := flags.strategy(app.DefaultStrategy)
			if err != nil {
				return err
			}
			configs := make([]domain.StrategyConfig, 0, 2)
			for _, chunking := range []domain.ChunkingStrategy{domain.ChunkingNaive, domain.ChunkingSpeakerTurn} {
				cfg, err := base.With(domain.StrategyOptions{ChunkingStrategy: chunking})
				if err != nil {
					return err
				}
				configs = append(configs, cfg)
			}
			corpus, err := loadCorpus(cmd.Context(), app, args, flags.format, configs)
			if err != nil {
				return err
			}

			report := make([]comparison, 0, len(set.Questions))
			for _, q := range set.Questions {
				cfg, err := base.With(q.Strategy)
				if err != nil {
					return err
				}
				filter := domain.SearchFilter{}
				if q.Meeting != "" {
					id, ok := corpus.ids[q.Meeting]
					if !ok {
						return fmt.Errorf("question %q references unknown transcript %q", q.Question, q.Meeting)
					}
					filter.MeetingID = id
				}
				runs, err := app.QueryUC.Compare(cmd.Context(), q.Question, cfg, filter)
				if err != nil {
					return err
				}
				report = append(report, comparison{Question: q.Question, Meeting: q.Meeting, Runs: runs})
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&questionsFile, "questions", "", "YAML question set")
	return cmd
}

type comparison struct {
	Question string               `json:"question"`
	Meeting  string               `json:"meeting,omitempty"`
	Runs     []domain.StrategyRun `json:"runs"`
}

func (f *rootFlags) strategy(base domain.StrategyConfig) (domain.StrategyConfig, error) {
	opts := domain.StrategyOptions{
		ChunkingStrategy:  domain.ChunkingStrategy(f.chunkingStrategy),
		RetrievalStrategy: domain.RetrievalStrategy(f.retrievalStrategy),
	}
	if f.topK > 0 {
		topK := f.topK
		opts.TopK = &topK
	}
	return base.With(opts)
}

func newLocalApp(cmd *cobra.Command) (*bootstrap.LocalApp, error) {
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "meetingctl", cfg.LogLevel)
	slog.SetDefault(logger)
	return bootstrap.NewLocal(cfg, logger)
}

// meetingKey identifies a transcript by its file name within one invocation.
func meetingKey(path string) string {
	return filepath.Base(path)
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
