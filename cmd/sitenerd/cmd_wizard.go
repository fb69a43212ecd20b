package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/cmd/sitenerd/wizard"
	"sitenerd/internal/project"
)

var wizardBaseDir string

// wizardCmd runs the guided setup flow. It is also the root command's
// default action.
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Guided setup: name the site, describe it, review the plan",
	Args:  cobra.NoArgs,
	RunE:  runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(wizard.New())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	res := final.(wizard.Model).Result()
	if !res.Confirmed {
		fmt.Println("Setup cancelled; nothing was created.")
		return nil
	}

	ctx, cfg, err := project.NewManager().Create(wizardBaseDir, res.Name)
	if err != nil {
		return err
	}
	cfg.Project.PlatformTarget = res.PlatformTarget
	if err := cfg.Save(ctx.ConfigPath()); err != nil {
		return err
	}
	if err := project.SavePlan(ctx.PlanPath(), res.Plan); err != nil {
		return err
	}
	logger.Info("project created via wizard",
		zap.String("name", res.Name),
		zap.String("target", res.PlatformTarget),
		zap.String("root", ctx.Root))

	fmt.Printf("Created project %q in %s\n\n", res.Name, ctx.Root)
	fmt.Println("Next steps (from the project folder):")
	fmt.Println("  sitenerd import template products")
	fmt.Println("  sitenerd import dry-run content/products_template.xlsx")
	fmt.Println("  sitenerd generate")
	return nil
}

func init() {
	wizardCmd.Flags().StringVar(&wizardBaseDir, "dir", "", "base directory to create the project in (default: current directory)")
}
