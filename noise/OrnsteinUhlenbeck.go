package noise

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OrnsteinUhlenbeck implements a mean-reverting Ornstein-Uhlenbeck
// process, which produces temporally correlated noise. The process is
// discretized as:
//
//	x_{t+1} = x_t + θ(μ - x_t)dt + σ(t)√dt * N(0, I)
//
// where σ(t) is annealed linearly, see CurrentSigma.
//
// Reset returns x to its initial value but does not reset the
// annealing schedule, so annealing is irreversible for the lifetime
// of the process.
type OrnsteinUhlenbeck struct {
	annealedGaussian
	theta float64
	dt    float64
	x0    []float64
	size  int

	xPrev  *mat.VecDense
	normal distuv.Normal
}

// NewOrnsteinUhlenbeck returns a new OrnsteinUhlenbeck process that
// produces samples of length size. The parameters are described by p
// and seed determines the random sequence generated.
func NewOrnsteinUhlenbeck(p OrnsteinUhlenbeckParams, size int,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if err := p.Validate(size); err != nil {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: %v", err)
	}

	schedule, err := newAnnealedGaussian(p.Mu, p.Sigma, p.SigmaMin,
		p.NStepsAnnealing)
	if err != nil {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: %v", err)
	}

	var x0 []float64
	if p.X0 != nil {
		x0 = make([]float64, size)
		copy(x0, p.X0)
	}

	source := rand.NewSource(seed)
	o := &OrnsteinUhlenbeck{
		annealedGaussian: schedule,
		theta:            p.Theta,
		dt:               p.Dt,
		x0:               x0,
		size:             size,
		normal:           distuv.Normal{Mu: 0, Sigma: 1, Src: source},
	}
	o.Reset()

	return o, nil
}

// Sample returns the next sample of the process and advances the
// process by one step
func (o *OrnsteinUhlenbeck) Sample() *mat.VecDense {
	scale := o.CurrentSigma() * math.Sqrt(o.dt)

	x := mat.NewVecDense(o.size, nil)
	for i := 0; i < o.size; i++ {
		prev := o.xPrev.AtVec(i)
		drift := o.theta * (o.mu - prev) * o.dt
		x.SetVec(i, prev+drift+scale*o.normal.Rand())
	}

	o.xPrev = x
	o.nSteps++

	return mat.VecDenseCopyOf(x)
}

// Reset sets the process state to x0, or to the zero vector if no x0
// was given. The number of steps taken is not reset.
func (o *OrnsteinUhlenbeck) Reset() {
	if o.x0 != nil {
		x0 := make([]float64, o.size)
		copy(x0, o.x0)
		o.xPrev = mat.NewVecDense(o.size, x0)
		return
	}
	o.xPrev = mat.NewVecDense(o.size, nil)
}

// Size returns the length of samples drawn from the process
func (o *OrnsteinUhlenbeck) Size() int {
	return o.size
}

// State returns a copy of the last value of the process
func (o *OrnsteinUhlenbeck) State() *mat.VecDense {
	return mat.VecDenseCopyOf(o.xPrev)
}

// String implements the fmt.Stringer interface
func (o *OrnsteinUhlenbeck) String() string {
	return fmt.Sprintf("OrnsteinUhlenbeck(θ: %v, μ: %v, σ: %v, dt: %v, "+
		"steps: %v)", o.theta, o.mu, o.CurrentSigma(), o.dt, o.nSteps)
}
