package main

import (
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogLevel string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error) - overrides LOG_LEVEL")
}

var rootCmd = &cobra.Command{
	Use:   "users-api",
	Short: "Users API is a small user management service with JWT authentication",
	Long: `Users API exposes CRUD operations over users behind JWT authentication.
Configuration is read from the environment; see the README for the full list of variables.`,
	Example: `JWT_SECRET=change-me-please-now users-api
  users-api serve --log-level debug
  users-api hash-password 's3cret-pass'`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         startServer,
}

func Execute() error {
	return rootCmd.Execute()
}
