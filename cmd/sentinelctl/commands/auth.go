package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, name string
	var signup bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			c := newClient(cmd)
			ctx := context.Background()

			if signup {
				var namePtr *string
				if name != "" {
					namePtr = &name
				}
				user, err := c.SignUp(ctx, email, password, namePtr)
				if err != nil {
					return fmt.Errorf("signup failed: %w", err)
				}
				if err := saveToken(c.Token()); err != nil {
					return err
				}
				fmt.Printf("Account created, signed in as %s\n", user.Email)
				return nil
			}

			user, err := c.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveToken(c.Token()); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Display name (with --signup)")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create a new account instead of signing in")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			if c.Token() == "" {
				fmt.Println("Not signed in")
				return nil
			}
			// Best effort; the local token goes away either way
			if err := c.SignOut(context.Background()); err != nil {
				fmt.Printf("Warning: server signout failed: %v\n", err)
			}
			if err := clearToken(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cmd)
			user, err := c.Me(context.Background())
			if err != nil {
				return fmt.Errorf("not signed in: %w", err)
			}
			if user.Name != nil {
				fmt.Printf("%s (%s)\n", *user.Name, user.Email)
			} else {
				fmt.Println(user.Email)
			}
			return nil
		},
	}
}
