package sim

import "math"

// Growth trajectory constants. The business plan the simulator stress-tests:
// 50k users at launch, 500k by end of year 2, 1.5M by end of year 3, then
// saturation toward an 80M total addressable market.
const (
	DefaultInitialUsers = 50000
	Year2Target         = 500000
	Year3Target         = 1500000
	TAM                 = 80000000.0

	phase1Days = 730
	phase2Days = 1095
)

var (
	phase1Rate  = math.Ln10 / 730.0     // 10x over two years
	phase2Rate  = math.Log(3.0) / 365.0 // 3x over year three
	phase3Rate  = math.Ln2 / 730.0      // pre-saturation doubling pace
	phase3Drift = 150.0                 // small linear adds per day at default scale
)

// GrowthController holds the population on the piecewise exponential
// trajectory. Configured initial populations other than the default scale
// the whole curve proportionally, so a 100-user sandbox follows the same
// shape as the 50k business plan.
//
// Market multipliers never scale the trajectory itself (virality may not
// override the plan); they only scale the autopilot lead floor.
type GrowthController struct {
	rng   *RNG
	base  float64 // configured initial users
	scale float64 // base / DefaultInitialUsers

	// phase-3 integration frontier, advanced one whole day at a time
	frontierDay    float64
	frontierTarget float64
}

// NewGrowthController anchors the trajectory at the configured initial
// population.
func NewGrowthController(rng *RNG, initialUsers int64) *GrowthController {
	base := float64(initialUsers)
	if base <= 0 {
		base = 1 // zero-user configs still bootstrap from the curve
	}
	return &GrowthController{
		rng:            rng,
		base:           base,
		scale:          base / DefaultInitialUsers,
		frontierDay:    phase2Days,
		frontierTarget: base * 30, // = scale * Year3Target
	}
}

// TargetAt returns the pure trajectory target for a precise elapsed-day
// position (cumulative_hours / 24). No jitter, no market input.
func (g *GrowthController) TargetAt(elapsedDays float64) float64 {
	d := elapsedDays
	switch {
	case d <= 0:
		return g.base
	case d <= phase1Days:
		return g.base * math.Exp(phase1Rate*d)
	case d <= phase2Days:
		return g.base * 10 * math.Exp(phase2Rate*(d-phase1Days))
	default:
		return g.phase3Target(d)
	}
}

// phase3Target integrates dN = N*r*(1-min(0.9, N/TAM)) + drift forward
// from the cached frontier in whole-day steps; a trailing fractional step
// is computed without moving the frontier, so the path is identical no
// matter how often callers ask.
func (g *GrowthController) phase3Target(d float64) float64 {
	for g.frontierDay+1 <= d {
		g.frontierTarget += g.phase3Delta(g.frontierTarget, 1)
		g.frontierDay++
	}
	if frac := d - g.frontierDay; frac > 0 {
		return g.frontierTarget + g.phase3Delta(g.frontierTarget, frac)
	}
	return g.frontierTarget
}

func (g *GrowthController) phase3Delta(n, dt float64) float64 {
	saturation := 1 - math.Min(0.9, n/TAM)
	return (n*phase3Rate*saturation + phase3Drift*g.scale) * dt
}

// LeadFloor is the autopilot minimum per consulted hour: lead generation
// never goes fully quiet.
func LeadFloor(current int64) int64 {
	floor := int64(math.Ceil(0.0001 * float64(current)))
	if floor < 3 {
		floor = 3
	}
	return floor
}

// DailyAllocation returns how many users to create for a whole day in fast
// mode: the jittered trajectory delta, or the market-scaled lead floor (at
// the day step's 24h x 10% duty aggregation), whichever is larger.
func (g *GrowthController) DailyAllocation(elapsedDays float64, current int64, econMult, viralMult float64) int64 {
	target := g.TargetAt(elapsedDays) * g.rng.Jitter(0.03)
	needed := int64(math.Ceil(target - float64(current)))
	if needed < 0 {
		needed = 0
	}
	floor := int64(math.Ceil(float64(LeadFloor(current)) * HoursPerDay * 0.1 * econMult * viralMult))
	if needed < floor {
		return floor
	}
	return needed
}

// HourlyAllocation is the detailed-mode equivalent: same formula per hour,
// without the 24h aggregation factor.
func (g *GrowthController) HourlyAllocation(elapsedDays float64, current int64, econMult, viralMult float64) int64 {
	target := g.TargetAt(elapsedDays) * g.rng.Jitter(0.03)
	needed := int64(math.Ceil(target - float64(current)))
	if needed < 0 {
		needed = 0
	}
	floor := int64(math.Ceil(float64(LeadFloor(current)) * 0.1 * econMult * viralMult))
	if needed < floor {
		return floor
	}
	return needed
}
