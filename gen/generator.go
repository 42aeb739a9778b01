// Package gen renders Go source for declared record types: the struct,
// its typed metamodel paths and the value/equality helpers the query
// builders consume.
package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/storm-repo/storm-go/schema"
)

// Config controls where and how generated files are written.
type Config struct {
	// Package is the package name of the generated files.
	Package string
	// Dir is the output directory. Created when missing.
	Dir string
	// Workers bounds concurrent file generation. Defaults to
	// GOMAXPROCS.
	Workers int
}

// Generator renders metamodel source files from schema definitions.
type Generator struct {
	cfg Config
}

func New(cfg Config) (*Generator, error) {
	if cfg.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("gen: output directory is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{cfg: cfg}, nil
}

// Generate writes one file per definition, including record types
// reached transitively through inline and reference fields.
func (g *Generator) Generate(ctx context.Context, defs ...*schema.Definition) error {
	all := collect(defs)
	if err := os.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("gen: create %s: %w", g.cfg.Dir, err)
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.cfg.Workers)
	for _, def := range all {
		def := def
		grp.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			src, err := g.Source(def)
			if err != nil {
				return err
			}
			target := filepath.Join(g.cfg.Dir, fileName(def.Name()))
			if err := os.WriteFile(target, src, 0o644); err != nil {
				return fmt.Errorf("gen: write %s: %w", target, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

// Source renders the formatted source for a single definition.
func (g *Generator) Source(def *schema.Definition) ([]byte, error) {
	f, err := g.entityFile(def)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("gen: render %s: %w", def.Name(), err)
	}
	src, err := imports.Process(fileName(def.Name()), buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("gen: format %s: %w", def.Name(), err)
	}
	return src, nil
}

// collect returns the requested definitions plus every record type
// reachable through their fields, each exactly once, in first-seen
// order.
func collect(defs []*schema.Definition) []*schema.Definition {
	seen := make(map[*schema.Definition]bool, len(defs))
	var out []*schema.Definition
	var walk func(*schema.Definition)
	walk = func(d *schema.Definition) {
		if seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
		for _, fld := range d.Fields() {
			if ref := fld.RefDefinition(); ref != nil {
				walk(ref)
			}
		}
	}
	for _, d := range defs {
		walk(d)
	}
	return out
}
