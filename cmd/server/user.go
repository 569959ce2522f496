package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"

	"classhub/backend/internal/api/validator"
	"classhub/backend/internal/dto"
)

// passwordEnv read when --password is omitted so it stays out of shell history
const passwordEnv = "CLASSHUB_BOOTSTRAP_PASSWORD"

func userCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account administration",
	}

	var req dto.CreateUserRequest
	var branchID string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an ADMIN or TEACHER account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(passwordEnv)
			}
			if branchID != "" {
				req.BranchID = &branchID
			}
			if err := validator.Register(); err != nil {
				return err
			}
			if err := binding.Validator.ValidateStruct(&req); err != nil {
				return fmt.Errorf("invalid account (password may come from %s): %s", passwordEnv, validator.Describe(err))
			}

			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			user, err := a.svc.Auth.CreateUser(ctx, &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&req.Name, "name", "", "display name")
	createCmd.Flags().StringVar(&req.Email, "email", "", "login email")
	createCmd.Flags().StringVar(&req.Password, "password", "", "initial password (min 8 characters)")
	createCmd.Flags().StringVar(&req.Role, "role", "TEACHER", "ADMIN or TEACHER")
	createCmd.Flags().StringVar(&branchID, "branch-id", "", "optional home branch")
	cmd.AddCommand(createCmd)

	return cmd
}
