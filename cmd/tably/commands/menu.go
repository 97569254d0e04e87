package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/pkg/cli"
	"github.com/haivivi/tably/go/pkg/menu"
)

var menuFormat string

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Menu inspection",
}

var menuShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the menu",
	Long: `Print the menu configured by menu.path. The default table view
marks popular items with a star; --format yaml or json emits the full
category structure.`,
	RunE: runMenuShow,
}

var menuValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the menu file loads",
	RunE:  runMenuValidate,
}

var menuResolveCmd = &cobra.Command{
	Use:   "resolve <text>",
	Short: "Resolve a spoken mention against the menu",
	Long: `Resolve a spoken mention against the menu and show the match
classification with every scored candidate. Useful when tuning
menu.match_threshold and menu.ambiguity_margin.

Example:
  tably menu resolve burger
  tably menu resolve "large coke"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMenuResolve,
}

func init() {
	menuShowCmd.Flags().StringVar(&menuFormat, "format", "table", "output format (table, yaml, json)")
	menuCmd.AddCommand(menuShowCmd, menuValidateCmd, menuResolveCmd)
	rootCmd.AddCommand(menuCmd)
}

func loadCatalog() (*menu.Catalog, string, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, "", err
	}
	catalog, err := settings.LoadCatalog()
	if err != nil {
		return nil, "", err
	}
	return catalog, settings.Menu.Path, nil
}

func runMenuShow(cmd *cobra.Command, args []string) error {
	catalog, _, err := loadCatalog()
	if err != nil {
		return err
	}
	if menuFormat != "table" {
		return cli.Output(catalog.Categories(), cli.OutputOptions{
			Format: cli.OutputFormat(menuFormat),
		})
	}
	items := catalog.Items()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if item.Popular {
			name += " *"
		}
		rows = append(rows, []string{item.ID, name, item.Category, item.Price.Dollars()})
	}
	fmt.Print(cli.RenderTable(cli.NewStyles(cli.DefaultTheme),
		[]string{"ID", "ITEM", "CATEGORY", "PRICE"}, rows))
	return nil
}

func runMenuValidate(cmd *cobra.Command, args []string) error {
	catalog, path, err := loadCatalog()
	if err != nil {
		return err
	}
	cli.PrintSuccess("%s: %d items in %d categories",
		path, len(catalog.Items()), len(catalog.Categories()))
	return nil
}

func runMenuResolve(cmd *cobra.Command, args []string) error {
	catalog, _, err := loadCatalog()
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	res := catalog.Resolve(text)
	fmt.Printf("%q resolves %s\n", text, res.Kind)
	if len(res.Candidates) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		rows = append(rows, []string{c.Item.ID, c.Item.Name, fmt.Sprintf("%.2f", c.Score)})
	}
	fmt.Print(cli.RenderTable(cli.NewStyles(cli.DefaultTheme),
		[]string{"ID", "NAME", "SCORE"}, rows))
	return nil
}
