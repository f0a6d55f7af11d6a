package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"urja/internal/config"
	"urja/internal/database"
	"urja/internal/domain"
	applog "urja/internal/logger"
	"urja/internal/notify"
	"urja/internal/store"
	"urja/internal/util"
)

var (
	verbose   bool
	outputFmt string
	cfg       *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inquiryctl",
	Short: "Operator tool for the Urja contact form service",
	Long: `inquiryctl reads the same environment (and .env file) as the API server.
Use it to mint staff tokens, look up stored inquiries and check the
notification email setup.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		applog.Init(applog.Config{Env: "development", Level: level, ServiceName: "inquiryctl"})
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a staff token for the inquiry read endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if cfg.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is not set")
		}
		if ttl <= 0 {
			ttl = time.Duration(cfg.Auth.TokenExpiryMinutes) * time.Minute
		}

		token, err := util.GenerateToken(cfg.Auth.SecretKey, subject, ttl, util.ScopeStaff)
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored inquiry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		inquiry, err := store.New(db).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if outputFmt == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(inquiry)
		}
		fmt.Printf("ID:           %s\n", inquiry.ID)
		fmt.Printf("Submitted:    %s\n", notify.FormatSubmittedAt(inquiry.CreatedAt))
		fmt.Printf("Name:         %s\n", inquiry.Name)
		fmt.Printf("Company:      %s\n", inquiry.Company)
		fmt.Printf("Email:        %s\n", inquiry.Email)
		fmt.Printf("Phone:        %s\n", inquiry.Phone)
		fmt.Printf("Requirement:\n%s\n", inquiry.Requirement)
		return nil
	},
}

var testEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Send a sample notification with the configured SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		dispatcher := notify.New(cfg.Mail)
		if !dispatcher.Configured() {
			return fmt.Errorf("email transport not configured, missing: %v", dispatcher.Missing())
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		res, err := dispatcher.Send(ctx, &domain.Inquiry{
			ID:          "test",
			Name:        "Test Sender",
			Company:     "Urja",
			Email:       cfg.Mail.AdminEmail,
			Phone:       "+910000000000",
			Requirement: "This is a test notification.\nNo action is needed.",
			CreatedAt:   time.Now(),
		})
		if err != nil {
			applog.L().Debug("test email failed", zap.Error(err))
			return err
		}

		fmt.Printf("Message-ID: %s\n", res.MessageID)
		for _, addr := range res.Accepted {
			fmt.Printf("accepted: %s\n", addr)
		}
		for _, addr := range res.Rejected {
			fmt.Printf("rejected: %s\n", addr)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format (table, json)")

	tokenCmd.Flags().String("subject", "staff", "token subject")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default ACCESS_TOKEN_EXPIRE_MINUTES)")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(testEmailCmd)
}
