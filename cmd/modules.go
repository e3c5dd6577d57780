package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/ui/theme"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Browse the module catalog",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()
		ctx := lc.authContext(context.Background())

		modules, err := lc.engine.registry.ListModules(ctx)
		if err != nil {
			return fmt.Errorf("list modules: %w", err)
		}
		if len(modules) == 0 {
			fmt.Println("No modules found.")
			return nil
		}

		fmt.Printf("%-28s  %-36s  %-12s  %-10s  %s\n", "ID", "Title", "Category", "Duration", "Levels")
		fmt.Println(strings.Repeat("─", 100))
		for _, m := range modules {
			title := m.Title
			if len(title) > 36 {
				title = title[:35] + "…"
			}
			fmt.Printf("%-28s  %-36s  %-12s  %-10s  %d\n", m.ID, title, m.Category, m.Duration, m.LevelCount)
		}
		return nil
	},
}

var modulesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a module with your level progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lc, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer lc.Close()
		ctx := lc.authContext(context.Background())

		m, err := lc.engine.registry.GetModuleByID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get module: %w", err)
		}
		levels, err := lc.engine.sessions.Levels(ctx, lc.user, m.ID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}

		fmt.Println(theme.Title.Render(m.Title))
		if m.Description != "" {
			fmt.Println(theme.Subtitle.Render(m.Description))
		}
		fmt.Printf("Category: %s   Difficulty: %s   Duration: %s\n\n", m.Category, m.Difficulty, m.Duration)

		for _, lv := range levels {
			score := "-"
			if lv.Scored {
				score = fmt.Sprintf("%.0f%%", lv.Score)
			}
			fmt.Printf("  %-10s %-22s best %s\n", lv.Level.DisplayName(), theme.Status(lv.Status), score)
			if content, ok := m.Level(lv.Level); ok {
				for _, sec := range content.Sections {
					fmt.Printf("      %s\n", theme.Hint.Render(sec.Title))
				}
			}
		}
		return nil
	},
}

func init() {
	modulesCmd.AddCommand(modulesListCmd)
	modulesCmd.AddCommand(modulesShowCmd)
}
