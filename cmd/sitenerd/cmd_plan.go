package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/internal/planner"
	"sitenerd/internal/project"
)

// planCmd infers and saves the site plan.
var planCmd = &cobra.Command{
	Use:   "plan [requirements]",
	Short: "Infer the site plan from a requirements description",
	Long: `Analyzes a plain-language description of the site and writes the plan:
pages, navigation order, branding tokens, and which content collections are
enabled. The import pipeline refuses to run without a plan.

Example:
  sitenerd plan "online store selling handmade desk lamps, with a contact form"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	requirements := strings.Join(args, " ")
	plan := planner.InferPlan(s.cfg.Project.Name, s.cfg.Project.PlatformTarget, requirements)

	// Re-planning keeps the original creation time.
	if existing, err := project.LoadPlan(s.ctx.PlanPath()); err == nil {
		plan.CreatedAt = existing.CreatedAt
	}

	if err := project.SavePlan(s.ctx.PlanPath(), plan); err != nil {
		return s.fail("plan", err, nil)
	}
	s.rec.Activity("plan_saved", map[string]any{"pages": len(plan.Pages)})
	logger.Info("plan saved", zap.Int("pages", len(plan.Pages)))

	fmt.Printf("Plan for %q saved.\n\nPages:\n", plan.SiteName)
	for _, p := range plan.Pages {
		fmt.Printf("  /%s  %s (%s)\n", p.Slug, p.Title, p.Purpose)
	}
	fmt.Println("\nEnabled collections:")
	for _, entity := range []string{"products", "pages", "blog", "contact", "gallery"} {
		if plan.EntityEnabled(entity) {
			fmt.Printf("  %s\n", entity)
		}
	}
	return nil
}
