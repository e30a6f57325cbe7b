package cli

import (
	"github.com/spf13/cobra"

	"github.com/cartopress/cartopress/pkg/theme"
)

// themesCommand lists the available color themes.
func (c *CLI) themesCommand() *cobra.Command {
	var themesDir string

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List available color themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := theme.Default()
			listed := theme.List(themesDir)

			printInfo("%s", StyleTitle.Render("Available themes"))

			seenDefault := false
			for _, info := range listed {
				name := info.ID
				if info.ID == d.ID {
					seenDefault = true
					name += " (default)"
				}
				printKeyValue(name, info.Description)
			}
			if !seenDefault {
				printKeyValue(d.ID+" (default)", d.Description)
			}
			if len(listed) == 0 {
				printInfo("no theme files in %s; using the built-in default", themesDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&themesDir, "themes-dir", "themes", "directory with theme TOML files")
	return cmd
}
