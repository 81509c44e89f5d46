// Command siifctl runs maintenance tasks against the SIIF database.
package main

import (
	"context"
	"fmt"
	"os"

	"siif/internal/config"
	"siif/internal/db"

	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	root := &cobra.Command{
		Use:           "siifctl",
		Short:         "Ferramentas de administração do SIIF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			db.DB, err = db.Open(cfg.Database)
			if err != nil {
				return err
			}
			return db.Migrate(db.DB)
		},
	}
	root.AddCommand(
		newCreateUserCmd(),
		newSeedMaterialsCmd(),
		newScanFilesCmd(),
		newFetchNewsCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}
