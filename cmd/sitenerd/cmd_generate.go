package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/internal/generator"
	"sitenerd/internal/project"
	"sitenerd/internal/scaffold"
	"sitenerd/internal/store"
)

// generateCmd renders the site into the output directory.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the site from the plan and imported content",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	return generateSite(cmd, s)
}

// generateSite is shared between the generate command and the watcher.
func generateSite(cmd *cobra.Command, s *session) error {
	plan, err := project.LoadPlan(s.ctx.PlanPath())
	if err != nil {
		return s.fail("generate", fmt.Errorf("load plan: %w", err), nil)
	}
	cs, err := store.Load(s.ctx.ContentStorePath())
	if err != nil {
		return s.fail("generate", err, nil)
	}

	outputDir := s.ctx.OutputDir(s.cfg.Generate.OutputDir)

	done := s.rec.OperationStart("generate", map[string]any{"output": outputDir})

	g, err := generator.New(plan, cs, generator.Options{
		OutputDir: outputDir,
		ImagesDir: s.ctx.ImagesDir(),
		Clean:     s.cfg.Generate.CleanBeforeGenerate,
	})
	if err != nil {
		done(err)
		return s.fail("generate", err, nil)
	}
	res, err := g.Run(cmd.Context())
	if err != nil {
		done(err)
		return s.fail("generate", err, nil)
	}

	// Scaffold last so a clean run cannot sweep it away.
	written, err := scaffold.Write(outputDir, s.cfg.Project.PlatformTarget, plan)
	done(err)
	if err != nil {
		return s.fail("generate", err, nil)
	}

	s.rec.Activity("site_generated", map[string]any{
		"pages":    len(res.Pages),
		"products": res.Products,
	})
	logger.Info("site generated",
		zap.Int("pages", len(res.Pages)),
		zap.Int("products", res.Products),
		zap.Int("scaffold_files", len(written)),
		zap.String("output", outputDir))

	fmt.Printf("Generated %d pages (%d products, %d images) into %s\n",
		len(res.Pages), res.Products, res.Images, outputDir)
	return nil
}
