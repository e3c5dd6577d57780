package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finscholars/finscholars/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import and validate catalog files",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Build a catalog document from a quiz spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		sheet, _ := cmd.Flags().GetString("sheet")

		cfg := catalog.DefaultImportConfig()
		if sheet != "" {
			cfg.SheetName = sheet
		}
		res, err := catalog.ImportFile(args[0], cfg)
		if err != nil {
			return err
		}
		for _, msg := range res.Errors {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		}

		data, err := catalog.Encode(res.Modules)
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		if _, err := catalog.Decode(data); err != nil {
			return fmt.Errorf("imported catalog is invalid: %w", err)
		}
		if output == "" || output == "-" {
			fmt.Println(string(data))
		} else if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d questions into %d modules (%d rows skipped).\n",
			res.Created, len(res.Modules), res.Skipped)
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <catalog.json>",
	Short: "Check a catalog document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		modules, err := reg.ListModules(context.Background())
		if err != nil {
			return err
		}
		levels := 0
		for _, m := range modules {
			levels += m.LevelCount
		}
		fmt.Printf("%s: %d modules, %d levels, valid\n", args[0], len(modules), levels)
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringP("output", "o", "", "Write the catalog to this file instead of stdout")
	catalogImportCmd.Flags().String("sheet", "", "Worksheet to read (default Sheet1)")
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
