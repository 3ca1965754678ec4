// Package pendulum implements the pendulum classic control environment
// with continuous actions
package pendulum

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// Continuous implements the classic control environment Pendulum. In
// this environment, a pendulum is attached to a fixed base. An agent
// can swing the pendulum back and forth, but the swinging torque is
// underpowered. In order to be able to swing the pendulum straight
// up, it must first be rocked back and forth, using the momentum to
// gradually climb higher until the pendulum can point straight up.
//
// State features consist of the angle of the pendulum from the
// positive y-axis and the angular velocity of the pendulum. The
// angular velocity is clipped to [-SpeedBound, SpeedBound]. Angles
// are normalized to stay within [-AngleBound, AngleBound] = [-π, π].
//
// Actions are continuous and 1-dimensional, and determine the torque
// to apply to the pendulum at its fixed base. Actions outside of
// [MinContinuousAction, MaxContinuousAction] = [-2, 2] are clipped.
type Continuous struct {
	environment.Task
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     timestep.TimeStep
	discount     float64
}

// NewContinuous creates and returns a new Continuous pendulum
// environment with the given task and discount, along with the first
// TimeStep of the first episode
func NewContinuous(t environment.Task, discount float64) (*Continuous,
	timestep.TimeStep, error) {
	p := &Continuous{
		Task:         t,
		dt:           dt,
		gravity:      Gravity,
		mass:         Mass,
		length:       Length,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}

	state := t.Start()
	if err := p.validateState(state); err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}
	p.lastStep = timestep.New(timestep.First, 0.0, discount, state, 0)

	return p, p.lastStep, nil
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (p *Continuous) LastTimeStep() timestep.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Continuous) Reset() timestep.TimeStep {
	state := p.Start()
	if err := p.validateState(state); err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}
	p.lastStep = timestep.New(timestep.First, 0, p.discount, state, 0)

	return p.lastStep
}

// Step takes one environmental step given action and returns the next
// timestep and a bool indicating whether or not the episode has ended
func (p *Continuous) Step(action *mat.VecDense) (timestep.TimeStep, bool) {
	if action.Len() != ActionDims {
		panic(fmt.Sprintf("step: actions should be %v-dimensional",
			ActionDims))
	}

	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)
	nextState := p.nextState(p.lastStep.Observation, torque)

	reward := p.GetReward(p.lastStep.Observation, action, nextState)
	nextStep := timestep.New(timestep.Mid, reward, p.discount, nextState,
		p.lastStep.Number+1)

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// nextState computes the next state of the environment given the
// current state and an amount of torque to apply to the fixed base of
// the pendulum
func (p *Continuous) nextState(obs mat.Vector,
	torque float64) *mat.VecDense {
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*p.dt
	newth := th + (newthdot * p.dt)

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = normalizeAngle(newth, p.angleBounds)

	return mat.NewVecDense(ObservationDims, []float64{newth, newthdot})
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() environment.Spec {
	lowerBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max})

	return environment.MustSpec(environment.Action, lowerBound, upperBound)
}

// DiscountSpec returns the discount specification of the environment
func (p *Continuous) DiscountSpec() environment.Spec {
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return environment.MustSpec(environment.Discount, lowerBound,
		upperBound)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Continuous) ObservationSpec() environment.Spec {
	minObs := []float64{p.angleBounds.Min, p.speedBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.angleBounds.Max, p.speedBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return environment.MustSpec(environment.Observation, lowerBound,
		upperBound)
}

// String converts the environment to a string representation
func (p *Continuous) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}

// normalizeAngle wraps the pendulum angle into [-π, π]
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	width := angleBounds.Max - angleBounds.Min
	th = math.Mod(th-angleBounds.Min, width)
	if th < 0 {
		th += width
	}
	return th + angleBounds.Min
}

// validateState ensures that the angle and angular velocity of a state
// are within the environmental limits
func (p *Continuous) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("invalid state dimension \n\twant(%v) \n\thave(%v)",
			ObservationDims, obs.Len())
	}

	if th := obs.AtVec(0); th > p.angleBounds.Max || th < p.angleBounds.Min {
		return fmt.Errorf("theta %v is not within bounds %v", th,
			p.angleBounds)
	}

	thdot := obs.AtVec(1)
	if thdot > p.speedBounds.Max || thdot < p.speedBounds.Min {
		return fmt.Errorf("theta dot %v is not within bounds %v", thdot,
			p.speedBounds)
	}
	return nil
}
