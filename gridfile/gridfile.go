// Package gridfile loads sweep definitions from HCL files. A definition
// is a single sweep block; attributes left out fall back to the default
// comparison sweep.
package gridfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/priobench/priosweep/grid"
)

type root struct {
	Sweep *sweepBlock `hcl:"sweep,block"`
}

type sweepBlock struct {
	Binary      *string  `hcl:"binary,optional"`
	Modes       []string `hcl:"modes,optional"`
	Dimensions  []int    `hcl:"dimensions,optional"`
	Clients     []int    `hcl:"clients,optional"`
	GridClients *int     `hcl:"grid_clients,optional"`
	ClientDim   *int     `hcl:"client_dim,optional"`
	Repeats     *int     `hcl:"repeats,optional"`
}

// Load reads an HCL sweep definition from path and returns the
// resulting config, with omitted attributes taken from grid.Default.
func Load(path string) (grid.Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return grid.Config{}, fmt.Errorf("parse %s: %w", path, diags)
	}

	return decode(file.Body)
}

// LoadBytes parses an in-memory definition. The filename is used only
// in diagnostics.
func LoadBytes(src []byte, filename string) (grid.Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return grid.Config{}, fmt.Errorf("parse %s: %w", filename, diags)
	}

	return decode(file.Body)
}

func decode(body hcl.Body) (grid.Config, error) {
	// Expose the mode names as bare identifiers so definitions can
	// write modes = [prio, dprio] without quoting.
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"prio":  cty.StringVal(string(grid.ModePrio)),
			"dprio": cty.StringVal(string(grid.ModeDPrio)),
		},
	}

	var r root
	if diags := gohcl.DecodeBody(body, evalCtx, &r); diags.HasErrors() {
		return grid.Config{}, fmt.Errorf("decode sweep definition: %w", diags)
	}

	if r.Sweep == nil {
		return grid.Config{}, fmt.Errorf("missing sweep block")
	}

	cfg := grid.Default()
	b := r.Sweep

	if b.Binary != nil {
		cfg.Binary = *b.Binary
	}

	if len(b.Modes) > 0 {
		modes := make([]grid.Mode, len(b.Modes))
		for i, m := range b.Modes {
			modes[i] = grid.Mode(m)
		}

		cfg.Modes = modes
	}

	if len(b.Dimensions) > 0 {
		cfg.Dimensions = b.Dimensions
	}

	if len(b.Clients) > 0 {
		cfg.Clients = b.Clients
	}

	if b.GridClients != nil {
		cfg.GridClients = *b.GridClients
	}

	if b.ClientDim != nil {
		cfg.ClientDim = *b.ClientDim
	}

	if b.Repeats != nil {
		cfg.Repeats = *b.Repeats
	}

	if err := cfg.Validate(); err != nil {
		return grid.Config{}, fmt.Errorf("invalid sweep definition: %w", err)
	}

	return cfg, nil
}
