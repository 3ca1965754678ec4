package noise

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianWhiteNoise implements uncorrelated Gaussian noise with mean
// μ and an annealed standard deviation. Consecutive samples are
// independent, so Reset has no effect.
type GaussianWhiteNoise struct {
	annealedGaussian
	size   int
	normal distuv.Normal
}

// NewGaussianWhiteNoise returns a new GaussianWhiteNoise process
// producing samples of length size
func NewGaussianWhiteNoise(p GaussianWhiteNoiseParams, size int,
	seed uint64) (*GaussianWhiteNoise, error) {
	if err := p.Validate(size); err != nil {
		return nil, fmt.Errorf("newGaussianWhiteNoise: %v", err)
	}

	schedule, err := newAnnealedGaussian(p.Mu, p.Sigma, p.SigmaMin,
		p.NStepsAnnealing)
	if err != nil {
		return nil, fmt.Errorf("newGaussianWhiteNoise: %v", err)
	}

	return &GaussianWhiteNoise{
		annealedGaussian: schedule,
		size:             size,
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed),
		},
	}, nil
}

// Sample returns the next sample of the process
func (g *GaussianWhiteNoise) Sample() *mat.VecDense {
	sigma := g.CurrentSigma()

	x := mat.NewVecDense(g.size, nil)
	for i := 0; i < g.size; i++ {
		x.SetVec(i, g.mu+sigma*g.normal.Rand())
	}
	g.nSteps++

	return x
}

// Reset is a no-op since white noise has no state
func (g *GaussianWhiteNoise) Reset() {}

// Size returns the length of samples drawn from the process
func (g *GaussianWhiteNoise) Size() int {
	return g.size
}
