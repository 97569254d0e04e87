package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/cmd/tably/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema [settings|menu]",
	Short: "Print a JSON Schema for a config file",
	Long: `Print a JSON Schema describing tably.yaml (settings, the
default) or the menu file (menu). Feed it to an editor or validator:

  tably config schema > tably.schema.json
  tably config schema menu > menu.schema.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSchema,
}

func init() {
	configCmd.AddCommand(configSchemaCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	target := "settings"
	if len(args) > 0 {
		target = args[0]
	}
	var (
		schema any
		err    error
	)
	switch target {
	case "settings":
		schema, err = config.Schema()
	case "menu":
		schema, err = config.MenuSchema()
	default:
		return fmt.Errorf("unknown schema %q (want settings or menu)", target)
	}
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
