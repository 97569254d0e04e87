package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/cmd/tably/internal/config"
	"github.com/haivivi/tably/go/pkg/cli"
	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
	"github.com/haivivi/tably/go/pkg/storage"
)

var (
	ordersQuery  string
	ordersDay    string
	ordersTo     string
	ordersFormat string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Saved order access",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved orders, newest first",
	Long: `List saved orders, newest first.

By default every order file under orders.dir is read. With --day the
stats index is consulted instead, which only covers orders finalized
while orders.stats_dir was configured. --query pipes the full order
records through a jq filter and prints one JSON result per line.

Examples:
  tably orders list
  tably orders list --day 2026-08-23
  tably orders list --query '.[] | select(.total > 20) | .id'`,
	RunE: runOrdersList,
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one saved order",
	Long: `Print one saved order. The argument is the order id (ORD-...),
the session id, or the stored file name. --query applies a jq filter
to the record; --format switches between json and yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrdersShow,
}

var ordersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy saved orders to another store",
	Long: `Copy every saved order file to a destination store: a local
directory or an s3://bucket/prefix location (credentials from the
AWS_* environment). Without --to the records print to stdout as one
JSON array.`,
	RunE: runOrdersExport,
}

func init() {
	ordersListCmd.Flags().StringVar(&ordersQuery, "query", "", "jq filter over the order records")
	ordersListCmd.Flags().StringVar(&ordersDay, "day", "", "list one day from the stats index (YYYY-MM-DD)")
	ordersShowCmd.Flags().StringVar(&ordersQuery, "query", "", "jq filter over the order record")
	ordersShowCmd.Flags().StringVar(&ordersFormat, "format", "json", "output format (json|yaml)")
	ordersExportCmd.Flags().StringVar(&ordersTo, "to", "", "destination directory or s3://bucket/prefix")
	ordersCmd.AddCommand(ordersListCmd, ordersShowCmd, ordersExportCmd)
	rootCmd.AddCommand(ordersCmd)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if ordersDay != "" {
		stats, err := settings.NewStats()
		if err != nil {
			return err
		}
		defer stats.Close()
		// The index keys days as yyyymmdd.
		day := strings.ReplaceAll(ordersDay, "-", "")
		sums, err := stats.Summaries(ctx, day)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(sums))
		for _, sm := range sums {
			rows = append(rows, []string{
				sm.ID,
				cli.FormatStamp(jsontime.Milli(time.UnixMilli(sm.CreatedAt))),
				strconv.Itoa(sm.Items),
				strconv.Itoa(sm.Units),
				menu.Cents(sm.Total).Dollars(),
			})
		}
		fmt.Print(cli.RenderTable(cli.NewStyles(cli.DefaultTheme),
			[]string{"ID", "CREATED", "ITEMS", "UNITS", "TOTAL"}, rows))
		return nil
	}

	store, err := openOrderStore(settings)
	if err != nil {
		return err
	}
	records, err := loadRecords(ctx, store)
	if err != nil {
		return err
	}
	if ordersQuery != "" {
		return printQuery(records, ordersQuery)
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			cli.FormatStamp(rec.CreatedAt),
			strconv.Itoa(len(rec.Lines)),
			rec.Total.Dollars(),
		})
	}
	fmt.Print(cli.RenderTable(cli.NewStyles(cli.DefaultTheme),
		[]string{"ID", "CREATED", "ITEMS", "TOTAL"}, rows))
	return nil
}

func runOrdersShow(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openOrderStore(settings)
	if err != nil {
		return err
	}
	rec, err := findRecord(ctx, store, args[0])
	if err != nil {
		return err
	}
	if ordersQuery != "" {
		return printQuery(rec, ordersQuery)
	}
	return cli.Output(rec, cli.OutputOptions{Format: cli.OutputFormat(ordersFormat)})
}

func runOrdersExport(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	files, err := settings.NewOrderFiles()
	if err != nil {
		return err
	}
	store := order.NewStore(files, nil)

	if ordersTo == "" {
		records, err := loadRecords(ctx, store)
		if err != nil {
			return err
		}
		return cli.Output(records, cli.OutputOptions{Format: cli.FormatJSON})
	}

	var dst storage.FileStore
	if strings.HasPrefix(ordersTo, "s3://") {
		bucket, prefix, err := config.ParseArchiveURL(ordersTo)
		if err != nil {
			return err
		}
		client, err := config.NewS3Client()
		if err != nil {
			return err
		}
		dst = storage.NewS3(client, bucket, prefix)
	} else {
		if dst, err = storage.NewLocal(ordersTo); err != nil {
			return err
		}
	}

	names, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := storage.ReadFile(ctx, files, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := storage.WriteFile(ctx, dst, name, data); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	cli.PrintSuccess("exported %d orders to %s", len(names), ordersTo)
	return nil
}

func openOrderStore(settings *config.Settings) (*order.Store, error) {
	files, err := settings.NewOrderFiles()
	if err != nil {
		return nil, err
	}
	return order.NewStore(files, nil), nil
}

// loadRecords reads every saved order, newest first.
func loadRecords(ctx context.Context, store *order.Store) ([]*order.Record, error) {
	names, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]*order.Record, 0, len(names))
	for _, name := range names {
		rec, err := store.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// findRecord resolves an order id, session id, or file name to the
// stored record.
func findRecord(ctx context.Context, store *order.Store, id string) (*order.Record, error) {
	if strings.HasSuffix(id, ".json") {
		return store.Load(ctx, id)
	}
	names, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		rec, err := store.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		if rec.ID == id || rec.SessionID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("order %q not found", id)
}

// printQuery pipes v through a jq expression, one JSON result per
// line.
func printQuery(v any, query string) error {
	q, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid jq expression %q: %w", query, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}
	iter := q.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq error: %w", err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
