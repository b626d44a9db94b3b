package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/content-engine/internal/config"
	"github.com/jonathan/content-engine/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for a user",
	Long:  `Sign a bearer token for the given user id with JWT_SECRET. Without --user-id a new id is generated.`,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUserID, "user-id", "u", "", "User id (UUID) to embed in the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	token, userID, err := mintToken(server.NewJWTService(jwtCfg), tokenUserID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "user id: %s\n", userID)
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func mintToken(svc *server.JWTService, rawUserID string) (string, uuid.UUID, error) {
	userID := uuid.New()
	if rawUserID != "" {
		parsed, err := uuid.Parse(rawUserID)
		if err != nil {
			return "", uuid.Nil, fmt.Errorf("invalid user id %q: %w", rawUserID, err)
		}
		userID = parsed
	}

	token, err := svc.GenerateToken(userID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, userID, nil
}
