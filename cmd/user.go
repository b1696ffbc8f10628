package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"task_manager/internal/service"
)

func (a *app) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(a.newUserAddCmd())
	return cmd
}

func (a *app) newUserAddCmd() *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an active user",
		Long: `Create an active user. The password is read from the terminal without echo,
or as the first line of stdin when stdin is not a terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			password, err := readPassword(cmd)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			services, err := newServices(conn, cfg, log)
			if err != nil {
				return err
			}
			if _, err := services.Register(cmd.Context(), service.RegisterInput{
				Username: username,
				Email:    email,
				Password: password,
			}); err != nil {
				return fmt.Errorf("create user %q: %w", username, err)
			}
			cmd.Printf("User %q created\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword prompts without echo on a terminal; otherwise it takes the
// first line of the command's input.
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print("Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
