package loadgen

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Pattern shapes the arrival rate over a run.
type Pattern uint8

const (
	// Constant holds the target rate for the whole run.
	Constant Pattern = iota
	// RampUp grows linearly from a tenth of the target to the full rate.
	RampUp
	// Burst alternates between double rate and idle.
	Burst
	// Random jitters each interval around the target rate.
	Random
)

func (p Pattern) String() string {
	switch p {
	case Constant:
		return "CONSTANT"
	case RampUp:
		return "RAMP_UP"
	case Burst:
		return "BURST"
	case Random:
		return "RANDOM"
	default:
		return "UNKNOWN"
	}
}

// ParsePattern maps a config string to a Pattern.
func ParsePattern(s string) (Pattern, error) {
	switch s {
	case "constant", "CONSTANT":
		return Constant, nil
	case "ramp", "ramp_up", "RAMP_UP":
		return RampUp, nil
	case "burst", "BURST":
		return Burst, nil
	case "random", "RANDOM":
		return Random, nil
	default:
		return Constant, errors.Errorf("loadgen: unknown pattern %q", s)
	}
}

// Profile describes one load run.
type Profile struct {
	Name      string
	Orders    int
	Rate      int // target orders/sec; <=0 means unthrottled
	Pattern   Pattern
	BuyRatio  float64
	Producers int
	Seed      int64
}

// Canned profiles sized for a laptop-class machine.
var (
	Light = Profile{
		Name: "light", Orders: 10_000, Rate: 1_000,
		Pattern: Constant, BuyRatio: 0.5, Producers: 2,
	}
	Medium = Profile{
		Name: "medium", Orders: 100_000, Rate: 10_000,
		Pattern: RampUp, BuyRatio: 0.5, Producers: 4,
	}
	Heavy = Profile{
		Name: "heavy", Orders: 1_000_000, Rate: 0,
		Pattern: Burst, BuyRatio: 0.5, Producers: 8,
	}
)

// ProfileByName resolves a canned profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "light":
		return Light, nil
	case "medium":
		return Medium, nil
	case "heavy":
		return Heavy, nil
	default:
		return Profile{}, errors.Errorf("loadgen: unknown profile %q", name)
	}
}

// pacer converts a profile into per-order sleep intervals following the
// pattern. A zero interval means full speed.
type pacer struct {
	profile Profile
	rng     *rand.Rand
	issued  int
}

func newPacer(p Profile, seed int64) *pacer {
	return &pacer{profile: p, rng: rand.New(rand.NewSource(seed))}
}

// interval returns how long to wait before the next order.
func (p *pacer) interval() time.Duration {
	p.issued++
	rate := p.profile.Rate
	if rate <= 0 {
		return 0
	}
	base := time.Second / time.Duration(rate)

	switch p.profile.Pattern {
	case Constant:
		return base
	case RampUp:
		// Fraction of run completed scales the rate from 10% to 100%.
		frac := float64(p.issued) / float64(p.profile.Orders)
		scale := 0.1 + 0.9*frac
		return time.Duration(float64(base) / scale)
	case Burst:
		// 100ms on at double rate, 100ms off.
		if (p.issued/100)%2 == 0 {
			return base / 2
		}
		return base * 2
	case Random:
		// Uniform jitter in [0.5, 1.5) of the base interval.
		return time.Duration(float64(base) * (0.5 + p.rng.Float64()))
	default:
		return base
	}
}
