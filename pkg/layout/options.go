package layout

import (
	"errors"
	"math"
)

var (
	// ErrUnknownBody is returned when a link or command names a body the
	// simulation does not hold.
	ErrUnknownBody = errors.New("layout: unknown body")

	// ErrUnknownParameter is returned by SetForceParameter for names it does
	// not recognize.
	ErrUnknownParameter = errors.New("layout: unknown force parameter")
)

// Force parameter names accepted by SetForceParameter.
const (
	ParamLink           = "link"
	ParamLinkDistance   = "link.distance"
	ParamCharge         = "charge"
	ParamCenter         = "center"
	ParamCollide        = "collide"
	ParamCollidePadding = "collide.padding"
)

// Options configures a Simulation. Zero values are not defaults; start from
// DefaultOptions.
type Options struct {
	Charge          float64 // many-body strength, negative repels
	Theta           float64 // Barnes-Hut accuracy, 0 for direct summation
	LinkDistance    float64
	LinkStrength    float64
	CenterX         float64
	CenterY         float64
	CenterStrength  float64
	CollidePadding  float64 // added to each body radius
	CollideStrength float64

	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64

	Seed uint64 // jitter source for coincident bodies
}

// DefaultOptions mirrors the stock concept-graph tuning.
func DefaultOptions() Options {
	return Options{
		Charge:          -300,
		Theta:           0.9,
		LinkDistance:    100,
		LinkStrength:    0.8,
		CenterStrength:  0.1,
		CollidePadding:  30,
		CollideStrength: 0.7,
		AlphaMin:        0.001,
		AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
		VelocityDecay:   0.4,
		Seed:            1,
	}
}
