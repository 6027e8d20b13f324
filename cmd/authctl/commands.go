package main

import (
	"errors"
	"fmt"
	"strings"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"
	"quizplatform/internal/modules/auth"
	"quizplatform/internal/modules/token"
	"quizplatform/internal/pkg/validator"
	"quizplatform/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExpireTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-tokens",
		Short: "Mark expired tokens as revoked (reason expired); rows are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.tokens().ExpireStale(cmd.Context())
			if err != nil {
				return err
			}
			a.log.Info("expired tokens marked", zap.Int64("count", n))
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d tokens\n", n)
			return nil
		},
	}
}

func newRevokeUserCmd(a *app) *cobra.Command {
	var (
		userID int64
		email  string
	)
	cmd := &cobra.Command{
		Use:   "revoke-user",
		Short: "Revoke every active token of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == 0) == (email == "") {
				return errors.New("exactly one of --user-id or --email is required")
			}

			users := repository.NewUserRepository(a.db)
			var (
				user *domain.User
				err  error
			)
			if userID != 0 {
				user, err = users.GetByID(cmd.Context(), userID)
			} else {
				user, err = users.GetByEmail(cmd.Context(), email)
			}
			if err != nil {
				if database.IsNotFound(err) {
					return fmt.Errorf("user not found")
				}
				return err
			}

			n, err := a.tokens().Revoke(cmd.Context(), token.Target{UserID: user.ID}, domain.RevokeReasonAdmin, token.ScopeAllDevices)
			if err != nil {
				return err
			}
			a.log.Info("user tokens revoked from cli", zap.Int64("user_id", user.ID), zap.Int64("count", n))
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d tokens of user %d\n", n, user.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	return cmd
}

type newUser struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	Name     string `validate:"max=255"`
	Role     string `validate:"oneof=user admin"`
}

func newCreateUserCmd(a *app) *cobra.Command {
	var (
		in       newUser
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account that can log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Email = strings.TrimSpace(in.Email)
			if errs := validator.Validate(&in); errs != nil {
				return fmt.Errorf("invalid input: %v", errs)
			}

			hash, err := auth.HashPassword(in.Password)
			if err != nil {
				return err
			}

			user := &domain.User{
				Email:        in.Email,
				PasswordHash: hash,
				Name:         in.Name,
				Role:         domain.UserRole(in.Role),
				IsActive:     !inactive,
			}
			if err := repository.NewUserRepository(a.db).Create(cmd.Context(), user); err != nil {
				if database.IsUniqueViolation(err) {
					return fmt.Errorf("email %s is already registered", user.Email)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Role, "role", string(domain.RoleUser), "role: user or admin")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account without activating it")
	return cmd
}
