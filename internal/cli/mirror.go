package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fputz/mailmirror/internal/chat"
	"github.com/fputz/mailmirror/internal/config"
	"github.com/fputz/mailmirror/internal/mailbox"
	"github.com/fputz/mailmirror/internal/mirror"
)

const configEnvVar = "MAILMIRROR_CONFIG"
const defaultEnvFile = ".env"

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror unread mails from the IMAP mailbox to the Zulip stream",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadAndValidate(cmd)
		if err != nil {
			return err
		}

		logLevel, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

		imapEnv, err := config.IMAPEnvFromEnv()
		if err != nil {
			return err
		}
		zulipEnv, err := config.ZulipEnvFromEnv()
		if err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		chatClient := &chat.Client{
			Site:   zulipEnv.Site,
			Email:  zulipEnv.Email,
			APIKey: zulipEnv.APIKey,
			Stream: cfg.Stream,
		}
		if err := chatClient.Verify(ctx); err != nil {
			return err
		}

		mailboxClient := &mailbox.Client{
			Addr:     fmt.Sprintf("%s:%d", imapEnv.Host, imapEnv.Port),
			Username: imapEnv.User,
			Password: imapEnv.Pass,
			Mailbox:  cfg.Mailbox,
		}
		if err := mailboxClient.Connect(); err != nil {
			return err
		}
		defer mailboxClient.Close()

		runner, err := mirror.New(
			mirror.WithMailbox(mailboxClient),
			mirror.WithChat(chatClient),
			mirror.WithConfig(cfg),
			mirror.WithLogger(logger),
			mirror.WithDryRun(dryRun),
		)
		if err != nil {
			return err
		}

		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		// Per-message failures are reported, not fatal.
		fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration without touching the mailbox",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadAndValidate(cmd)
		if err != nil {
			return err
		}

		if _, err := config.IMAPEnvFromEnv(); err != nil {
			return err
		}
		if _, err := config.ZulipEnvFromEnv(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), config.Summary(cfg))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{mirrorCmd, checkCmd} {
		cmd.Flags().String("config", "", "Path to YAML config file (or set MAILMIRROR_CONFIG)")
	}
	mirrorCmd.Flags().Bool("dry-run", false, "Transform and report without dispatching or deleting")
}

func loadAndValidate(cmd *cobra.Command) (config.Config, error) {
	cfgPath, err := resolveConfigPath(cmd)
	if err != nil {
		return config.Config{}, err
	}

	if err := loadEnvFile(); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	if strings.TrimSpace(cfgPath) == "" {
		return "", errors.New("config path is required via --config or MAILMIRROR_CONFIG")
	}
	return cfgPath, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}
