package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/internal/project"
)

var initBaseDir string

// initCmd creates a new project folder.
var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new siteNERD project",
	Long: `Creates the project folder with its metadata directory, a default
configuration, and empty content/ and content/images/ directories.

Example:
  sitenerd init "Desk Lamp Store"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	ctx, cfg, err := project.NewManager().Create(initBaseDir, name)
	if err != nil {
		return err
	}
	logger.Info("project created",
		zap.String("name", cfg.Project.Name),
		zap.String("root", ctx.Root))

	fmt.Printf("Created project %q in %s\n", cfg.Project.Name, ctx.Root)
	fmt.Println("Next steps:")
	fmt.Println("  1. sitenerd plan \"describe your site\"   (from the project folder)")
	fmt.Println("  2. sitenerd import template products")
	fmt.Println("  3. sitenerd import dry-run content/products.xlsx")
	return nil
}

func init() {
	initCmd.Flags().StringVar(&initBaseDir, "dir", "", "base directory to create the project in (default: current directory)")
}
