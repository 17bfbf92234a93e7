package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miralles/users-api/internal/pkg/password"
)

var hashPasswordFlags struct {
	Cost int
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password",
	Long: `Print the bcrypt hash of a password, for seeding a store by hand.
The password is read from standard input when not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: hashPassword,
}

func init() {
	hashPasswordCmd.Flags().IntVar(&hashPasswordFlags.Cost, "cost", 0, "bcrypt cost (default: bcrypt.DefaultCost)")
	rootCmd.AddCommand(hashPasswordCmd)
}

func hashPassword(cmd *cobra.Command, args []string) error {
	var plain string
	if len(args) == 1 {
		plain = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		plain = strings.TrimRight(line, "\r\n")
	}
	if plain == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := password.NewHasher(hashPasswordFlags.Cost).Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
