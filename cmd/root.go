package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/auth"
	"github.com/finscholars/finscholars/internal/config"
	"github.com/finscholars/finscholars/internal/store"
)

// localUser is the learner id used when nobody is logged in.
const localUser = "local"

// tokenKey is the kv entry holding the back-end token.
const tokenKey = "auth.token"

var rootCmd = &cobra.Command{
	Use:   "finscholars",
	Short: "Financial literacy quizzes and progression",
	Long:  "FinScholars serves leveled finance modules with scored quizzes, level unlocking and badges.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FINSCHOLARS_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file (default .env if present)")
	rootCmd.PersistentFlags().String("user", "", "Learner id for local commands (default: logged-in user)")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the env file and environment. The --db flag overrides
// FINSCHOLARS_DB.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB = p
	}
	return cfg, nil
}

// openStore opens the configured database, creating the SQLite directory
// when needed.
func openStore(cfg config.Config) (*store.Store, error) {
	if cfg.DBDriver == store.DriverSQLite {
		if err := store.EnsureDir(cfg.DB); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}
	s, err := store.Open(cfg.DBDriver, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// resolveUser returns --user, then the user of the saved token, then the
// local learner.
func resolveUser(ctx context.Context, cmd *cobra.Command, s *store.Store) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	tok, ok, err := s.KVRepo().Get(ctx, tokenKey)
	if err != nil || !ok {
		return localUser
	}
	claims, err := auth.Inspect(tok)
	if err != nil || claims.User() == "" {
		return localUser
	}
	return claims.User()
}
