package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/crm-console/internal/app"
	"github.com/nhle/crm-console/internal/credential"
	"github.com/nhle/crm-console/internal/model"
)

var (
	loginIntake string
	loginSecret string
)

// loginCmd stores the API token or an intake mailbox password.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the CRM API token in the system keyring",
	Long: `Store a secret in the system keyring.

Without flags the CRM API token used in remote mode is stored.
With --intake NAME the password of that configured IMAP mailbox is stored
and the connection is checked.

Example:
  crm login
  crm login --intake sales`,
	RunE: runLogin,
}

// logoutCmd removes the API token.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the CRM API token from the system keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := credential.Delete(credential.APITokenKey)
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func runLogin(cmd *cobra.Command, args []string) error {
	if loginIntake == "" {
		secret, err := promptSecret("CRM API token", loginSecret)
		if err != nil {
			return err
		}
		if err := credential.Set(credential.APITokenKey, secret); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API token stored.")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mailbox, err := findIntake(cfg, loginIntake)
	if err != nil {
		return err
	}

	secret, err := promptSecret(fmt.Sprintf("Password for %s@%s", mailbox.Username, mailbox.Host), loginSecret)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	user, err := app.ValidateMailbox(ctx, mailbox, secret)
	if err != nil {
		return fmt.Errorf("checking mailbox %s: %w", mailbox.Name, err)
	}

	if err := credential.Set(credential.IntakeKey(mailbox.Name), secret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected as %s; password for %q stored.\n", user, mailbox.Name)
	return nil
}

func findIntake(cfg *model.AppConfig, name string) (model.IntakeConfig, error) {
	for _, in := range cfg.Intake {
		if in.Name == name {
			return in, nil
		}
	}
	return model.IntakeConfig{}, fmt.Errorf("no intake mailbox named %q in %s", name, configPath)
}

// promptSecret returns given, or asks for a secret with a masked input.
func promptSecret(title, given string) (string, error) {
	if given != "" {
		return given, nil
	}

	var secret string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(secret), nil
}
