package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/output"
)

var (
	flagForce bool
	flagPage  int
	flagLimit int
)

var householdsCmd = &cobra.Command{
	Use:     "households",
	Aliases: []string{"hh"},
	Short:   "Manage the households you belong to",
}

var householdsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your households",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[[]api.Household]
		if err := apiClient.Get("/households", nil, &resp); err != nil {
			return fmt.Errorf("listing households: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.HouseholdTable(resp.Data, cfg.Household)
		return nil
	},
}

var householdsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a household with you as its first member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.Household]
		if err := apiClient.Post("/households", map[string]string{"name": args[0]}, &resp); err != nil {
			return fmt.Errorf("creating household: %w", err)
		}
		selected := false
		if cfg.Household == "" {
			cfg.Household = resp.Data.ID
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			selected = true
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		printf("Created household %q (%s)\n", resp.Data.Name, resp.Data.ID)
		if selected {
			printf("Selected it as your current household.\n")
		}
		return nil
	},
}

var householdsUseCmd = &cobra.Command{
	Use:   "use <household-id>",
	Short: "Select the household that lists commands default to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.Household]
		if err := apiClient.Get("/households/"+args[0], nil, &resp); err != nil {
			return fmt.Errorf("fetching household: %w", err)
		}
		cfg.Household = resp.Data.ID
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		printf("Now using %q (%s)\n", resp.Data.Name, resp.Data.ID)
		return nil
	},
}

var householdsShowCmd = &cobra.Command{
	Use:   "show [household-id]",
	Short: "Show a household and its members",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		householdID, err := cfg.HouseholdOr(firstArg(args))
		if err != nil {
			return err
		}
		var resp api.Response[api.Household]
		if err := apiClient.Get("/households/"+householdID, nil, &resp); err != nil {
			return fmt.Errorf("fetching household: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.HouseholdDetail(resp.Data)
		return nil
	},
}

var householdsRmCmd = &cobra.Command{
	Use:   "rm <household-id>",
	Short: "Delete a household with all its lists and items",
	Long: `Delete a household for every member.

Warning: all shopping lists and items in the household are removed. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var info api.Response[api.Household]
		if err := apiClient.Get("/households/"+args[0], nil, &info); err != nil {
			return fmt.Errorf("fetching household: %w", err)
		}
		if !flagForce && !confirm(fmt.Sprintf("Delete household %q and everything in it?", info.Data.Name)) {
			printf("Cancelled.\n")
			return nil
		}
		if err := apiClient.Delete("/households/"+args[0], nil); err != nil {
			return fmt.Errorf("deleting household: %w", err)
		}
		if err := forgetHousehold(args[0]); err != nil {
			return err
		}
		printf("Deleted: %s\n", info.Data.Name)
		return nil
	},
}

var householdsInviteCmd = &cobra.Command{
	Use:   "invite <household-id> <email>",
	Short: "Add a registered user to a household",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.User]
		if err := apiClient.Post("/households/"+args[0]+"/members", map[string]string{"email": args[1]}, &resp); err != nil {
			return fmt.Errorf("adding member: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		printf("Added %s (%s)\n", resp.Data.Username, resp.Data.Email)
		return nil
	},
}

var householdsLeaveCmd = &cobra.Command{
	Use:   "leave <household-id>",
	Short: "Leave a household",
	Long: `Leave a household. When the last member leaves, the household and
everything in it is deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.LeaveResponse]
		if err := apiClient.Delete("/households/"+args[0]+"/members/me", &resp); err != nil {
			return fmt.Errorf("leaving household: %w", err)
		}
		if err := forgetHousehold(args[0]); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		if resp.Data.HouseholdDeleted {
			printf("Left household. You were the last member, so it was deleted.\n")
			return nil
		}
		printf("Left household.\n")
		return nil
	},
}

var householdsActivityCmd = &cobra.Command{
	Use:   "activity [household-id]",
	Short: "Show recent changes in a household",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		householdID, err := cfg.HouseholdOr(firstArg(args))
		if err != nil {
			return err
		}
		params := url.Values{}
		if flagPage > 0 {
			params.Set("page", strconv.Itoa(flagPage))
		}
		if flagLimit > 0 {
			params.Set("limit", strconv.Itoa(flagLimit))
		}
		var resp api.Response[[]api.ActivityEntry]
		if err := apiClient.Get("/households/"+householdID+"/activity", params, &resp); err != nil {
			return fmt.Errorf("fetching activity: %w", err)
		}
		if flagJSON {
			output.JSON(resp)
			return nil
		}
		output.ActivityTable(resp.Data, resp.Pagination)
		return nil
	},
}

// forgetHousehold drops the selection once the household is no longer ours.
func forgetHousehold(id string) error {
	if cfg.Household != id {
		return nil
	}
	cfg.Household = ""
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	householdsRmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	householdsActivityCmd.Flags().IntVar(&flagPage, "page", 0, "Page number")
	householdsActivityCmd.Flags().IntVar(&flagLimit, "limit", 0, "Entries per page")

	householdsCmd.AddCommand(
		householdsLsCmd,
		householdsCreateCmd,
		householdsUseCmd,
		householdsShowCmd,
		householdsRmCmd,
		householdsInviteCmd,
		householdsLeaveCmd,
		householdsActivityCmd,
	)
	rootCmd.AddCommand(householdsCmd)
}
