package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			ctx := cmd.Context()
			res, err := a.client.Register(ctx, name, email, password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			if err := a.saveToken(ctx, res.Token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered and logged in as %s <%s>\n", res.User.Name, res.User.Email)

			return syncAndReport(cmd, a)
		}),
	}
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password, at least 6 characters")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and merge local data with the server copy",
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			ctx := cmd.Context()
			res, err := a.client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.saveToken(ctx, res.Token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s <%s>\n", res.User.Name, res.User.Email)

			return syncAndReport(cmd, a)
		}),
	}
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the local data",
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			if err := a.client.Logout(ctx); err != nil {
				// the local session is dropped anyway
				fmt.Fprintf(a.out, "warning: server logout failed: %s\n", err)
			}
			if err := a.saveToken(ctx, ""); err != nil {
				return err
			}
			if err := a.session.Clear(ctx); err != nil {
				return fmt.Errorf("clear local data: %w", err)
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.client.Authenticated() {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			user, err := a.client.User(cmd.Context())
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		}),
	}
}
