package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

var (
	userName     string
	userFullName string
	userRole     string
	userOrgID    int64

	tokenUser string
	tokenTTL  time.Duration
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account; the first authority admin must be created this way",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := models.UserRole(strings.ToUpper(userRole))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", userRole)
		}
		needsOrg := role == models.RoleOrganizationAdmin || role == models.RoleOrganizationPilot
		if needsOrg != (userOrgID != 0) {
			if needsOrg {
				return fmt.Errorf("role %s requires --org-id", role)
			}
			return fmt.Errorf("role %s cannot belong to an organization", role)
		}

		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		ctx := cmd.Context()

		u := &models.User{Username: userName, FullName: userFullName, Role: role}
		if needsOrg {
			org, err := repository.NewOrganizationRepository(d).GetByID(ctx, userOrgID)
			if err != nil {
				return err
			}
			if org == nil {
				return fmt.Errorf("organization %d not found", userOrgID)
			}
			u.OrganizationID = &org.ID
		}
		users := repository.NewUserRepository(d)
		if existing, err := users.GetByUsername(ctx, userName); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("user %q already exists", userName)
		}
		created, err := users.Create(ctx, u)
		if err != nil {
			return err
		}
		colorOK.Fprintf(cmd.OutOrStdout(), "created user %d %s (%s)\n", created.ID, created.Username, created.Role)
		return nil
	},
}

var orgAddCmd = &cobra.Command{
	Use:   "add-org <name>",
	Short: "Create an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		org, err := repository.NewOrganizationRepository(d).Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		colorOK.Fprintf(cmd.OutOrStdout(), "created organization %d %s\n", org.ID, org.Name)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an existing account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		u, err := repository.NewUserRepository(d).GetByUsername(cmd.Context(), tokenUser)
		if err != nil {
			return err
		}
		if u == nil || !u.IsActive {
			return fmt.Errorf("no active user %q", tokenUser)
		}
		tok, err := auth.IssueToken(cfg.Auth.JWTSecret, u.Username, string(u.Role), tokenTTL)
		if err != nil {
			return err
		}
		if tokenTTL > 0 {
			colorInfo.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Now().Add(tokenTTL).UTC().Format(time.RFC3339))
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "username", "", "login name")
	userAddCmd.Flags().StringVar(&userFullName, "full-name", "", "display name")
	userAddCmd.Flags().StringVar(&userRole, "role", "", "AUTHORITY_ADMIN, ORGANIZATION_ADMIN, ORGANIZATION_PILOT or SOLO_PILOT")
	userAddCmd.Flags().Int64Var(&userOrgID, "org-id", 0, "organization for organization roles")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("role")
	userCmd.AddCommand(userAddCmd, orgAddCmd)

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "username the token is issued for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime; 0 issues a token without expiry")
	_ = tokenCmd.MarkFlagRequired("user")
}
