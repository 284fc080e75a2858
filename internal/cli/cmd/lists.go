package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/output"
)

var (
	flagDate      string
	flagHousehold string
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage shopping lists",
}

var listsLsCmd = &cobra.Command{
	Use:   "ls [household-id]",
	Short: "List a household's shopping lists, newest date first",
	Long: `List shopping lists of the given household, or of the one selected
with "shoplist households use".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		householdID, err := cfg.HouseholdOr(firstArg(args))
		if err != nil {
			return err
		}
		var resp api.Response[[]api.ShoppingList]
		if err := apiClient.Get("/households/"+householdID+"/lists", nil, &resp); err != nil {
			return fmt.Errorf("listing shopping lists: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ListTable(resp.Data)
		return nil
	},
}

var listsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a shopping list",
	Long: `Create a shopping list in the selected household, or in the one
given with --household.

  shoplist lists create "Weekly shop"
  shoplist lists create "Party" --date 2024-12-31 --household <household-id>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		householdID, err := cfg.HouseholdOr(flagHousehold)
		if err != nil {
			return err
		}
		date := flagDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		var resp api.Response[api.ShoppingList]
		body := map[string]string{"name": args[0], "date": date}
		if err := apiClient.Post("/households/"+householdID+"/lists", body, &resp); err != nil {
			return fmt.Errorf("creating shopping list: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		printf("Created list %q for %s (%s)\n", resp.Data.Name, resp.Data.Date, resp.Data.ID)
		return nil
	},
}

var listsRmCmd = &cobra.Command{
	Use:   "rm <list-id>",
	Short: "Delete a shopping list and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var info api.Response[api.ShoppingList]
		if err := apiClient.Get("/lists/"+args[0], nil, &info); err != nil {
			return fmt.Errorf("fetching shopping list: %w", err)
		}
		if !flagForce && !confirm(fmt.Sprintf("Delete list %q and all its items?", info.Data.Name)) {
			printf("Cancelled.\n")
			return nil
		}
		if err := apiClient.Delete("/lists/"+args[0], nil); err != nil {
			return fmt.Errorf("deleting shopping list: %w", err)
		}
		printf("Deleted: %s\n", info.Data.Name)
		return nil
	},
}

func init() {
	listsCreateCmd.Flags().StringVar(&flagDate, "date", "", "List date as YYYY-MM-DD (default: today)")
	listsCreateCmd.Flags().StringVarP(&flagHousehold, "household", "H", "", "Household id (default: the selected household)")
	listsRmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")

	listsCmd.AddCommand(listsLsCmd, listsCreateCmd, listsRmCmd)
	rootCmd.AddCommand(listsCmd)
}
