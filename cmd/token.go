package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listo-ph/listo/internal/auth"
)

// tokenCmd signs ID tokens for local testing against the HTTP API.
var tokenCmd = &cobra.Command{
	Use:   "token <uid>",
	Short: "Issue a signed ID token for the HTTP API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.SigningSecret == "" {
			return eris.New("auth signing secret is required (LISTO_AUTH_SIGNING_SECRET)")
		}
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		name, _ := cmd.Flags().GetString("name")

		capability, err := parseRole(role)
		if err != nil {
			return err
		}

		v := auth.NewVerifier(cfg.Auth.SigningSecret, cfg.Auth.Issuer)
		tok, err := v.Issue(auth.Session{UID: args[0], Name: name, Capability: capability}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, tok)
		return nil
	},
}

func parseRole(role string) (auth.Capability, error) {
	switch role {
	case "user":
		return auth.User, nil
	case "admin":
		return auth.Admin, nil
	}
	return auth.Guest, eris.Errorf("unknown role %q (want user or admin)", role)
}

func init() {
	tokenCmd.Flags().String("role", "user", "user or admin")
	tokenCmd.Flags().String("name", "", "display name claim")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
