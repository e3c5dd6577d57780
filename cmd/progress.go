package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/catalog"
	"github.com/finscholars/finscholars/internal/ui/theme"
)

var progressCmd = &cobra.Command{
	Use:   "progress [module]",
	Short: "Show level progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()
		ctx := lc.authContext(context.Background())

		var modules []catalog.Summary
		if len(args) == 1 {
			m, err := lc.engine.registry.GetModuleByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get module: %w", err)
			}
			modules = []catalog.Summary{m.Summary()}
		} else {
			modules, err = lc.engine.registry.ListModules(ctx)
			if err != nil {
				return fmt.Errorf("list modules: %w", err)
			}
		}

		stats, err := lc.store.AttemptRepo().Stats(ctx, lc.user)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}
		fmt.Printf("Learner %s: %d attempts, %d passed, %d perfect\n\n", lc.user, stats.Attempts, stats.Passed, stats.Perfect)

		fmt.Printf("%-28s  %s\n", "Module", "Levels")
		fmt.Println(strings.Repeat("─", 80))
		for _, m := range modules {
			levels, err := lc.engine.sessions.Levels(ctx, lc.user, m.ID)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", m.ID, err)
				continue
			}
			cells := make([]string, 0, len(levels))
			for _, lv := range levels {
				cell := fmt.Sprintf("%s %s", lv.Level.DisplayName(), theme.Status(lv.Status))
				if lv.Scored {
					cell += fmt.Sprintf(" (%.0f%%)", lv.Score)
				}
				cells = append(cells, cell)
			}
			fmt.Printf("%-28s  %s\n", m.ID, strings.Join(cells, "  "))
		}
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear local progress for the learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this deletes all level scores; rerun with --yes to confirm")
		}
		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()

		if err := lc.engine.sessions.ResetProgress(context.Background(), lc.user); err != nil {
			return err
		}
		fmt.Printf("Progress cleared for %s.\n", lc.user)
		return nil
	},
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()
		ctx := context.Background()

		gallery, err := lc.engine.badges.Gallery(ctx, lc.user)
		if err != nil {
			return err
		}
		earned := 0
		for _, b := range gallery {
			if !b.Earned {
				fmt.Printf("  %s  %-20s %s\n", theme.Locked.Render("🔒"), theme.Locked.Render(b.Name), theme.Hint.Render(b.Description))
				continue
			}
			earned++
			name := b.Name
			if b.IsNew {
				name += " " + theme.Highlight.Render("NEW")
			}
			fmt.Printf("  %s  %-20s %s  %s\n", b.Icon, name, b.Description, b.AwardedAt.Local().Format("2006-01-02"))
		}
		fmt.Printf("\n%d of %d badges earned\n", earned, len(gallery))
		return lc.engine.badges.MarkSeen(ctx, lc.user)
	},
}

func init() {
	progressResetCmd.Flags().Bool("yes", false, "Confirm the reset")
	progressCmd.AddCommand(progressResetCmd)
}
