// Command bulkctl runs and checks incident upload workbooks from the shell.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/JonMunkholm/IncidentUpload/internal/catalog"
	"github.com/JonMunkholm/IncidentUpload/internal/config"
	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/JonMunkholm/IncidentUpload/internal/flow"
	"github.com/JonMunkholm/IncidentUpload/internal/logging"
	"github.com/JonMunkholm/IncidentUpload/internal/report"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText adds the coded message when the error table knows err.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%s\n%s", core.FormatUserError(err), err)
	}
	return err.Error()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bulkctl",
		Short:         "Incident bulk upload operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newProductsCmd(),
	)

	return rootCmd
}

func newRunCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "run <file.xlsx>",
		Short: "Submit every row of a workbook to the flow endpoint",
		Long: `Run a workbook through the same pipeline as POST /bulk-upload and print
the JSON response. Failed rows are written to the failure report.

Example: bulkctl run incidents.xlsx --report ./failures.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			closer, err := logging.Setup(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			if reportPath != "" {
				cfg.Report.Path = reportPath
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workbook: %w", err)
			}

			products, _, err := catalog.Load(cmd.Context(), cfg.Catalog)
			if err != nil {
				return err
			}

			client := flow.New(cfg.Flow)
			slog.Info("running batch", "file", args[0], "flow_url", client.URL(), "report_path", cfg.Report.Path)

			pipeline := core.NewPipeline(products, client, report.New(cfg.Report.Path))
			resp, err := pipeline.Run(cmd.Context(), data)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Failure report path (default: REPORT_PATH)")

	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.xlsx>",
		Short: "Check a workbook's header without submitting anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workbook: %w", err)
			}

			sheet, err := core.ParseSpreadsheet(data)
			if err != nil {
				return err
			}

			if missing := core.MissingColumns(sheet.Columns); len(missing) > 0 {
				return errors.New(core.MissingColumnsMessage(missing))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d columns, %d rows\n", len(sheet.Columns), len(sheet.Rows))
			return nil
		},
	}
}

func newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOffline()
			if err != nil {
				return err
			}

			products, source, err := catalog.Load(cmd.Context(), cfg.Catalog)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "NAME\tPRODUCT ID\n")
			for _, name := range products.Names() {
				id, _ := products.Resolve(name)
				fmt.Fprintf(w, "%s\t%s\n", name, id)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d products from %s\n", products.Len(), source)
			return nil
		},
	}
}
