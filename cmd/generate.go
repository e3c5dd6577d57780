package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/contentgen"
	"github.com/finscholars/finscholars/internal/llm"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a personalized module with an LLM",
	Long: "Generate writes the reading material for a topic and level, then a quiz\n" +
		"built from it, and prints the module as a catalog document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		level, _ := cmd.Flags().GetString("level")
		interests, _ := cmd.Flags().GetStringSlice("interests")
		output, _ := cmd.Flags().GetString("output")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		provider, err := llm.NewProvider(ctx, cfg.LLM, s.EventRepo())
		if err != nil {
			return fmt.Errorf("set up LLM provider: %w", err)
		}
		gen := contentgen.NewService(provider, contentgen.DefaultConfig())

		fmt.Fprintf(os.Stderr, "Writing %s module on %q with %s...\n", level, topic, provider.ModelID())
		m, err := gen.GenerateModule(ctx, contentgen.Request{
			Topic:     topic,
			Level:     level,
			Interests: interests,
		})
		if err != nil {
			return err
		}

		// The quiz is written while the sections are shown.
		lc := &m.Levels[0]
		gen.RequestQuiz(ctx, m, lc.Level)
		for _, sec := range lc.Sections {
			fmt.Fprintf(os.Stderr, "  • %s\n", sec.Title)
		}
		fmt.Fprintln(os.Stderr, "Writing quiz...")
		q, err := gen.WaitQuiz(ctx, m.ID)
		if err != nil {
			return err
		}
		lc.Quiz = q

		data, err := catalog.Encode([]*catalog.Module{m})
		if err != nil {
			return fmt.Errorf("encode module: %w", err)
		}
		if output == "" || output == "-" {
			fmt.Println(string(data))
			return nil
		}
		return os.WriteFile(output, append(data, '\n'), 0o644)
	},
}

func init() {
	generateCmd.Flags().String("topic", "", "Finance topic to write about (required)")
	generateCmd.Flags().String("level", "Basic", "Basic, Moderate or Advanced")
	generateCmd.Flags().StringSlice("interests", nil, "Learner interests to tailor examples to")
	generateCmd.Flags().StringP("output", "o", "", "Write the module to this file instead of stdout")
	_ = generateCmd.MarkFlagRequired("topic")
}
