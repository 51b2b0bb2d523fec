package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"deskhub/internal/config"
	"deskhub/internal/database"
	"deskhub/internal/handler"
	"deskhub/internal/mail"
	"deskhub/internal/model"
	"deskhub/internal/pdf"
	"deskhub/internal/router"
	"deskhub/internal/service"
	"deskhub/internal/util"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "deskhub",
		Short:        "DeskHub inventory and HR administration API",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newAddUserCmd(),
		newTestEmailCmd(),
		newSheetsCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			database.InitDB(cfg)

			if cfg.Server.JWTSecret == "" {
				if cfg.Server.AuthRequired {
					return errors.New("JWT_SECRET must be set when AUTH_REQUIRED is true")
				}
				log.Println("Warning: JWT_SECRET not set, login tokens use an insecure development secret")
				cfg.Server.JWTSecret = "deskhub-dev-secret"
			}

			sheets, err := service.NewSheetSyncService(cfg.Sheets)
			if err != nil {
				return fmt.Errorf("starting sheet sync: %w", err)
			}
			users := service.NewUserStore(database.DB)
			if _, err := users.Resolver().Resolve(cmd.Context()); err != nil {
				log.Printf("Warning: users table not usable yet: %v", err)
			}
			forms := service.NewFormService(database.DB, pdf.NewRenderer(), mail.New(cfg.Mail), cfg.Mail.To, sheets)
			tokens := util.NewTokenIssuer(cfg.Server.JWTSecret, time.Duration(cfg.Server.JWTExpirationHours)*time.Hour)

			app := router.New(cfg, handler.New(database.DB, cfg, users, forms, tokens), tokens)

			go func() {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
				<-quit
				log.Println("Shutting down")
				if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
					log.Printf("Shutdown: %v", err)
				}
			}()

			log.Printf("DeskHub listening on :%s", cfg.Server.Port)
			return app.Listen(":" + cfg.Server.Port)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables and seed the admin account",
		Run: func(cmd *cobra.Command, args []string) {
			database.InitDB(config.LoadConfig())
			log.Println("Migration complete")
		},
	}
}

func newAddUserCmd() *cobra.Command {
	var in service.UserInput
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			database.InitDB(cfg)

			in.UpdatedBy = "cli"
			user, err := service.NewUserStore(database.DB).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (id %d, role %s)\n", user.Username, user.ID, user.RoleName())
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Role, "role", model.RoleUser, "user, admin or superadmin")
	cmd.Flags().StringVar(&in.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Office, "office", "", strings.Join(model.Offices, " or "))
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newTestEmailCmd() *cobra.Command {
	var to []string
	cmd := &cobra.Command{
		Use:   "test-email",
		Short: "Send a test message through the configured SMTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if len(to) == 0 {
				to = cfg.Mail.To
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			err := mail.New(cfg.Mail).Send(ctx, mail.Message{
				To:      to,
				Subject: "DeskHub test email",
				Body:    "This is a test message from DeskHub.",
			})
			if err != nil {
				return err
			}
			fmt.Printf("Test email sent to %s\n", strings.Join(to, ", "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipients (defaults to SMTP_TO)")
	return cmd
}

func newSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Synchronise form records with the Google Sheet",
	}

	open := func() (*service.SheetSyncService, error) {
		cfg := config.LoadConfig()
		if !cfg.Sheets.Enabled {
			return nil, errors.New("SHEETS_ENABLED is false")
		}
		database.InitDB(cfg)
		return service.NewSheetSyncService(cfg.Sheets)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Append every form record to the sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := open()
			if err != nil {
				return err
			}
			var recs []model.FormRecord
			if err := database.DB.WithContext(cmd.Context()).Order("id").Find(&recs).Error; err != nil {
				return err
			}
			if err := sheets.BatchSyncForms(cmd.Context(), recs); err != nil {
				return err
			}
			fmt.Printf("Pushed %d form record(s)\n", len(recs))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Copy status decisions from the sheet onto form records",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := open()
			if err != nil {
				return err
			}
			n, err := sheets.PullStatuses(cmd.Context(), database.DB)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d form record(s)\n", n)
			return nil
		},
	})
	return cmd
}
