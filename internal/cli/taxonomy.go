package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cliniprov/internal/model"
	"github.com/ppiankov/cliniprov/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and export the clinical concept taxonomy",
	Long: `The taxonomy lists every diagnosis, medication, procedure, finding and
risk factor the engine recognizes, with trigger phrases, codes and risk weights.

The built-in taxonomy is used unless taxonomy.path points at a YAML file.`,
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active taxonomy as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := activeTaxonomy()
		if err != nil {
			return err
		}

		data, err := tax.Export()
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Taxonomy %s: %d rules\n\n", tax.Version(), tax.RuleCount())
		_, err = os.Stdout.Write(data)
		return err
	},
}

var taxonomyExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write the active taxonomy to a YAML file for editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := activeTaxonomy()
		if err != nil {
			return err
		}

		data, err := tax.Export()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return fmt.Errorf("write taxonomy: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ Exported taxonomy %s (%d rules) to %s\n", tax.Version(), tax.RuleCount(), args[0])
		return nil
	},
}

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check that a taxonomy file loads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := taxonomy.LoadFile(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "✓ %s: taxonomy %s\n", args[0], tax.Version())
		for _, cat := range model.Categories {
			fmt.Fprintf(os.Stderr, "  %-14s %d rules\n", cat, len(tax.Rules(cat)))
		}
		return nil
	},
}

func activeTaxonomy() (*taxonomy.Taxonomy, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return taxonomy.Load(cfg.Taxonomy.Path)
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)
	taxonomyCmd.AddCommand(taxonomyExportCmd)
	taxonomyCmd.AddCommand(taxonomyValidateCmd)
}
