package main

import (
	"quizplatform/internal/config"
	"quizplatform/internal/database"
	"quizplatform/internal/modules/token"
	"quizplatform/internal/pkg/logger"
	"quizplatform/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the state shared by every subcommand, filled in by the root's PersistentPreRunE.
type app struct {
	databaseURL string

	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operator tasks for quizplatform API tokens and accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "database DSN (defaults to DATABASE_URL)")

	root.AddCommand(
		newExpireTokensCmd(a),
		newRevokeUserCmd(a),
		newCreateUserCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.databaseURL != "" {
		cfg.DatabaseURL = a.databaseURL
	}

	a.cfg = cfg
	a.log = logger.WithComponent(logger.New(cfg.LogLevel, cfg.AppEnv), "authctl")

	db, err := database.Connect(cfg.DatabaseURL, a.log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) tokens() *token.Service {
	return token.NewService(
		repository.NewTokenRepository(a.db),
		token.Config{
			AccessTTL:  a.cfg.AccessTTL,
			RefreshTTL: a.cfg.RefreshTTL,
			Pepper:     a.cfg.TokenHashPepper,
		},
		a.log,
	)
}
