// Command storm generates record structs and metamodel path descriptors
// from a YAML schema manifest.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/storm-repo/storm-go/gen"
)

var (
	manifestPath string
	outDir       string
	pkgName      string
	workers      int
	watch        bool
)

var rootCmd = &cobra.Command{
	Use:           "storm",
	Short:         "Code generator for storm record types",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate metamodel source from a schema manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watch {
			return watchAndGenerate(cmd.Context(), manifestPath, cmd.OutOrStdout())
		}
		return generateOnce(cmd.Context(), manifestPath, cmd.OutOrStdout())
	},
}

func init() {
	generateCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "storm.yaml", "path to the schema manifest")
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides manifest)")
	generateCmd.Flags().StringVarP(&pkgName, "package", "p", "", "generated package name (overrides manifest)")
	generateCmd.Flags().IntVar(&workers, "workers", 0, "concurrent file writers (0 = GOMAXPROCS)")
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever the manifest changes")
	rootCmd.AddCommand(generateCmd)
}

func generateOnce(ctx context.Context, path string, out io.Writer) error {
	m, err := LoadManifest(path)
	if err != nil {
		return err
	}
	cfg := gen.Config{Package: m.Package, Dir: m.Out, Workers: workers}
	if pkgName != "" {
		cfg.Package = pkgName
	}
	if outDir != "" {
		cfg.Dir = outDir
	}
	defs, err := m.Definitions()
	if err != nil {
		return err
	}
	g, err := gen.New(cfg)
	if err != nil {
		return err
	}
	if err := g.Generate(ctx, defs...); err != nil {
		return err
	}
	fmt.Fprintf(out, "generated %d types into %s\n", len(defs), cfg.Dir)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "storm:", err)
		os.Exit(1)
	}
}
