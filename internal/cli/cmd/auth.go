package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/output"
)

var (
	flagUsername string
	flagEmail    string
	flagPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Long: `Create an account on the server. The password is prompted for
unless --password is given.

  shoplist register --username alice --email alice@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(stdin)
		username := flagUsername
		if username == "" {
			username = prompt(reader, "Username: ")
		}
		email := flagEmail
		if email == "" {
			email = prompt(reader, "Email: ")
		}
		password, confirmPassword := flagPassword, flagPassword
		if password == "" {
			password = prompt(reader, "Password: ")
			confirmPassword = prompt(reader, "Confirm password: ")
		}

		var resp api.Response[api.AuthResponse]
		err := apiClient.Post("/auth/register", map[string]string{
			"username":        username,
			"email":           email,
			"password":        password,
			"confirmPassword": confirmPassword,
		}, &resp)
		if err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		return storeSession(resp.Data, "Registered")
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with your shoplist server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(stdin)
		email := flagEmail
		if email == "" {
			email = prompt(reader, "Email: ")
		}
		password := flagPassword
		if password == "" {
			password = prompt(reader, "Password: ")
		}

		var resp api.Response[api.AuthResponse]
		err := apiClient.Post("/auth/login", map[string]string{"email": email, "password": password}, &resp)
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				return errors.New(apiErr.Message)
			}
			return fmt.Errorf("logging in: %w", err)
		}
		return storeSession(resp.Data, "Logged in")
	},
}

func storeSession(auth api.AuthResponse, verb string) error {
	cfg.Token = auth.Token
	// A household selected by a previous account is not visible to this one.
	cfg.Household = ""
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if flagJSON {
		output.JSON(auth.User)
		return nil
	}
	printf("%s as %s (%s)\n", verb, auth.User.Username, auth.User.Email)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current session and remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HasToken() {
			if err := apiClient.Post("/auth/logout", nil, nil); err != nil {
				var apiErr *api.APIError
				// An already revoked or expired token still gets cleared locally.
				if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
					return fmt.Errorf("logging out: %w", err)
				}
			}
		}
		if err := cfg.ClearSession(); err != nil {
			return fmt.Errorf("clearing config: %w", err)
		}
		printf("Logged out.\n")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.User]
		if err := apiClient.Get("/auth/me", nil, &resp); err != nil {
			return fmt.Errorf("fetching user: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.UserInfo(resp.Data)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&flagUsername, "username", "", "Username (2-20 characters)")
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&flagPassword, "password", "", "Password (prompted when omitted)")
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Password (prompted when omitted)")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}
