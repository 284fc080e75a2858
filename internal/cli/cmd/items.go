package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shoplist/api/internal/cli/api"
	"github.com/shoplist/api/internal/cli/output"
)

var (
	flagItemName string
	flagCategory string
	flagAmount   string
	flagNotes    string
	flagBought   bool
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the items on a shopping list",
}

var itemsLsCmd = &cobra.Command{
	Use:   "ls <list-id>",
	Short: "List items, unbought first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[[]api.Item]
		if err := apiClient.Get("/lists/"+args[0]+"/items", nil, &resp); err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ItemTable(resp.Data)
		return nil
	},
}

var itemsAddCmd = &cobra.Command{
	Use:   "add <list-id> <name>",
	Short: "Add an item to a shopping list",
	Long: `Add an item to a shopping list.

  shoplist items add <list-id> Milk --amount "2 l" --category Dairy`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		body := map[string]string{
			"name":     args[1],
			"category": flagCategory,
			"amount":   flagAmount,
			"notes":    flagNotes,
		}
		var resp api.Response[api.Item]
		if err := apiClient.Post("/lists/"+args[0]+"/items", body, &resp); err != nil {
			return fmt.Errorf("adding item: %w", err)
		}
		return printItem(resp.Data, "Added")
	},
}

// itemsEditCmd only sends the flags that were given, so the server
// keeps every other field as it is.
var itemsEditCmd = &cobra.Command{
	Use:   "edit <item-id>",
	Short: "Change fields of an item",
	Long: `Change fields of an item. Fields without a flag are left unchanged;
pass an empty value to clear an optional field.

  shoplist items edit <item-id> --amount "3 l"
  shoplist items edit <item-id> --notes ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		patch := map[string]interface{}{}
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch["name"] = flagItemName
		}
		if flags.Changed("category") {
			patch["category"] = flagCategory
		}
		if flags.Changed("amount") {
			patch["amount"] = flagAmount
		}
		if flags.Changed("notes") {
			patch["notes"] = flagNotes
		}
		if flags.Changed("bought") {
			patch["bought"] = flagBought
		}
		if len(patch) == 0 {
			return errors.New("nothing to change: pass at least one of --name, --category, --amount, --notes, --bought")
		}

		var resp api.Response[api.Item]
		if err := apiClient.Patch("/items/"+args[0], patch, &resp); err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		return printItem(resp.Data, "Updated")
	},
}

var itemsToggleCmd = &cobra.Command{
	Use:   "toggle <item-id>",
	Short: "Flip an item between bought and not bought",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.Item]
		if err := apiClient.Post("/items/"+args[0]+"/toggle", nil, &resp); err != nil {
			return fmt.Errorf("toggling item: %w", err)
		}
		return printItem(resp.Data, "Toggled")
	},
}

var itemsRmCmd = &cobra.Command{
	Use:   "rm <item-id>",
	Short: "Remove an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if err := apiClient.Delete("/items/"+args[0], nil); err != nil {
			return fmt.Errorf("removing item: %w", err)
		}
		printf("Removed item %s\n", args[0])
		return nil
	},
}

func printItem(item api.Item, verb string) error {
	if flagJSON {
		output.JSON(item)
		return nil
	}
	printf("%s %s %s\n", verb, output.Checkbox(item.Bought), item.Name)
	return nil
}

func init() {
	itemsAddCmd.Flags().StringVar(&flagCategory, "category", "", "Category, e.g. Dairy")
	itemsAddCmd.Flags().StringVar(&flagAmount, "amount", "", "Amount, e.g. \"2 l\"")
	itemsAddCmd.Flags().StringVar(&flagNotes, "notes", "", "Free text notes")

	itemsEditCmd.Flags().StringVar(&flagItemName, "name", "", "New name")
	itemsEditCmd.Flags().StringVar(&flagCategory, "category", "", "New category")
	itemsEditCmd.Flags().StringVar(&flagAmount, "amount", "", "New amount")
	itemsEditCmd.Flags().StringVar(&flagNotes, "notes", "", "New notes")
	itemsEditCmd.Flags().BoolVar(&flagBought, "bought", false, "Mark as bought (--bought=false to unmark)")

	itemsCmd.AddCommand(itemsLsCmd, itemsAddCmd, itemsEditCmd, itemsToggleCmd, itemsRmCmd)
	rootCmd.AddCommand(itemsCmd)
}
