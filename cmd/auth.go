package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/auth"
	"github.com/finscholars/finscholars/internal/backend"
	"github.com/finscholars/finscholars/internal/config"
)

var errNoBackend = errors.New("FINSCHOLARS_BACKEND_URL is not set")

func requireBackend(cfg config.Config) (*backend.Client, error) {
	c := newBackend(cfg)
	if c == nil {
		return nil, errNoBackend
	}
	return c, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the FinScholars back-end",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		signup, _ := cmd.Flags().GetBool("signup")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := requireBackend(cfg)
		if err != nil {
			return err
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		if email == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			if in.Scan() {
				email = strings.TrimSpace(in.Text())
			}
		}
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			if in.Scan() {
				password = strings.TrimSpace(in.Text())
			}
		}
		if email == "" || password == "" {
			return errors.New("email and password are required")
		}

		ctx := context.Background()
		var res *backend.AuthResult
		if signup {
			res, err = client.Signup(ctx, email, password, nil)
		} else {
			res, err = client.Login(ctx, email, password)
		}
		if err != nil {
			return err
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.KVRepo().Set(ctx, tokenKey, res.Token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}

		if res.IsNewUser {
			fmt.Printf("Welcome to FinScholars! Logged in as %s.\n", res.UserID)
		} else {
			fmt.Printf("Logged in as %s.\n", res.UserID)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		tok, ok, err := s.KVRepo().Get(ctx, tokenKey)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}
		if client := newBackend(cfg); client != nil {
			if err := client.Logout(backend.WithToken(ctx, tok)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: back-end logout failed: %v\n", err)
			}
		}
		if err := s.KVRepo().Delete(ctx, tokenKey); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		tok, ok, err := s.KVRepo().Get(ctx, tokenKey)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if !ok {
			fmt.Printf("Not logged in (local learner %q).\n", resolveUser(ctx, cmd, s))
			return nil
		}
		claims, err := auth.Inspect(tok)
		if err != nil {
			return err
		}

		fmt.Printf("User:     %s\n", claims.User())
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time
			state := "valid"
			if time.Now().After(exp) {
				state = "expired"
			}
			fmt.Printf("Expires:  %s (%s)\n", exp.Local().Format("2006-01-02 15:04:05"), state)
		}

		if client := newBackend(cfg); client != nil {
			me, err := client.Me(backend.WithToken(ctx, tok))
			if err != nil {
				if backend.IsUnauthorized(err) {
					fmt.Println("The back-end rejected the saved token; run finscholars login.")
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: fetch profile: %v\n", err)
				return nil
			}
			fmt.Printf("Email:    %s\n", me.Email)
			if me.DisplayName != "" {
				fmt.Printf("Name:     %s\n", me.DisplayName)
			}
			fmt.Printf("Progress: %.0f%% (%d modules, %d badges)\n", me.ProgressPercentage, len(me.Modules), len(me.Badges))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when empty)")
	loginCmd.Flags().Bool("signup", false, "Create the account first")
}
