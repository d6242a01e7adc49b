// Package grid builds the ordered invocation plan for a comparison
// sweep. A plan is a pure expansion of a Config into argument vectors;
// nothing in this package executes a process.
package grid

import (
	"fmt"
	"strconv"
)

// Mode selects the aggregation variant under test.
type Mode string

const (
	ModePrio  Mode = "prio"
	ModeDPrio Mode = "dprio"
)

// Invocation is one fully determined subprocess execution: the binary
// path plus its flag values. It is built once and never mutated.
type Invocation struct {
	Binary    string
	Mode      Mode
	Dimension int
	Clients   int
}

// Argv returns the argument vector for the invocation, executable first.
func (inv Invocation) Argv() []string {
	return []string{
		inv.Binary,
		"-f", string(inv.Mode),
		"-d", strconv.Itoa(inv.Dimension),
		"-c", strconv.Itoa(inv.Clients),
	}
}

// Config describes a sweep: which binary to run and the two grids to
// expand. The order of Modes, Dimensions and Clients is significant and
// preserved by Plan.
type Config struct {
	Binary     string
	Modes      []Mode
	Dimensions []int
	Clients    []int

	// GridClients is the client count held fixed while sweeping
	// dimensions; ClientDim is the dimension held fixed while sweeping
	// client counts.
	GridClients int
	ClientDim   int

	// Repeats is the number of back-to-back trials per grid point.
	Repeats int
}

// Default returns the canonical comparison sweep.
func Default() Config {
	return Config{
		Binary:      "./target/release/examples/comparison",
		Modes:       []Mode{ModePrio, ModeDPrio},
		Dimensions:  []int{1, 8, 64, 256},
		Clients:     []int{10000, 100000, 1000000},
		GridClients: 10000,
		ClientDim:   1,
		Repeats:     5,
	}
}

// Validate checks that the config expands to a well-formed plan.
func (cfg Config) Validate() error {
	if cfg.Binary == "" {
		return fmt.Errorf("binary path must not be empty")
	}

	if len(cfg.Modes) == 0 {
		return fmt.Errorf("at least one mode is required")
	}

	for _, m := range cfg.Modes {
		switch m {
		case ModePrio, ModeDPrio:
		default:
			return fmt.Errorf("unknown mode %q", m)
		}
	}

	if len(cfg.Dimensions) == 0 {
		return fmt.Errorf("at least one dimension value is required")
	}

	if len(cfg.Clients) == 0 {
		return fmt.Errorf("at least one client count is required")
	}

	if cfg.GridClients < 1 {
		return fmt.Errorf("grid client count must be positive, got %d",
			cfg.GridClients)
	}

	if cfg.ClientDim < 1 {
		return fmt.Errorf("client-grid dimension must be positive, got %d",
			cfg.ClientDim)
	}

	if cfg.Repeats < 1 {
		return fmt.Errorf("repeats must be positive, got %d", cfg.Repeats)
	}

	return nil
}

// Plan expands the two grids into the full ordered invocation list.
// The dimension grid comes first, then the client grid. Within each
// grid the values are visited in listed order, each mode is repeated
// Repeats times in immediate succession, and a mode's repeats finish
// before the next mode begins.
func Plan(cfg Config) ([]Invocation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	total := (len(cfg.Dimensions) + len(cfg.Clients)) *
		len(cfg.Modes) * cfg.Repeats
	plan := make([]Invocation, 0, total)

	for _, dim := range cfg.Dimensions {
		for _, mode := range cfg.Modes {
			inv := Invocation{
				Binary:    cfg.Binary,
				Mode:      mode,
				Dimension: dim,
				Clients:   cfg.GridClients,
			}
			for i := 0; i < cfg.Repeats; i++ {
				plan = append(plan, inv)
			}
		}
	}

	for _, clients := range cfg.Clients {
		for _, mode := range cfg.Modes {
			inv := Invocation{
				Binary:    cfg.Binary,
				Mode:      mode,
				Dimension: cfg.ClientDim,
				Clients:   clients,
			}
			for i := 0; i < cfg.Repeats; i++ {
				plan = append(plan, inv)
			}
		}
	}

	return plan, nil
}
