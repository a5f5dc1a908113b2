package layout

const (
	// Damping multiplies every velocity once per tick.
	Damping = 0.95

	// LocalSpeed is k_s, the base factor of the local step size.
	LocalSpeed = 0.1

	// MaxDisplacement caps s·|F| for a single node per tick.
	MaxDisplacement = 10.0

	// InitialTimestep is the warm-up timestep of the first tick.
	InitialTimestep = 20.0

	// TimestepDecay is applied to the timestep each tick while it exceeds 1.
	TimestepDecay = 0.8

	minDistance    = 1e-6
	minSwinging    = 1e-6
	tractionRatio  = 0.1
	minGlobalSpeed = 0.01
	maxGlobalSpeed = 10.0
)

// Params are the tunable layout parameters. They may be changed between
// ticks with [Engine.SetParams].
type Params struct {
	// Enabled turns the engine on; a disabled engine leaves positions alone.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Repulsion is k_r, the degree-weighted repulsion coefficient.
	Repulsion float64 `toml:"repulsion" json:"repulsion" validate:"gte=0"`
	// WeightExponent is k_w; weighted edges scale attraction by weight^k_w.
	WeightExponent float64 `toml:"weight_exponent" json:"weight_exponent"`
	// Gravity is k_g, the pull toward the origin.
	Gravity float64 `toml:"gravity" json:"gravity" validate:"gte=0"`
	// Bucketed restricts repulsion to neighboring grid cells.
	Bucketed bool `toml:"bucketed" json:"bucketed"`
	// IdealEdgeLength sets the bucket cell size (2x this length).
	IdealEdgeLength float64 `toml:"ideal_edge_length" json:"ideal_edge_length" validate:"gt=0"`
}

// DefaultParams returns the parameters the viewer starts with.
func DefaultParams() Params {
	return Params{
		Enabled:         true,
		Repulsion:       5000,
		WeightExponent:  0.1,
		Gravity:         0.2,
		IdealEdgeLength: 100,
	}
}
