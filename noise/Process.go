// Package noise implements exploration noise processes for agents with
// continuous actions.
//
// All processes in this package anneal their standard deviation
// linearly from sigma to sigmaMin over a fixed number of samples. If
// no minimum sigma is given, the standard deviation stays constant.
package noise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Process is a stateful stochastic process that generates exploration
// noise to be added to actions
type Process interface {
	// Sample returns the next sample of the process and advances the
	// process state
	Sample() *mat.VecDense

	// Reset resets the process state to its initial value
	Reset()

	// Size returns the length of each sample
	Size() int
}

// Annealer is a Process whose standard deviation is annealed over time
type Annealer interface {
	Process

	// CurrentSigma returns the standard deviation that will be used
	// by the next call to Sample
	CurrentSigma() float64

	// Steps returns the total number of samples drawn
	Steps() int
}

// annealedGaussian implements the linear annealing schedule shared by
// all processes in this package:
//
//	σ(t) = max(σ_min, σ - t * (σ - σ_min) / nStepsAnnealing)
//
// The schedule depends only on the number of samples drawn, which is
// never reset.
type annealedGaussian struct {
	mu       float64
	sigma    float64
	sigmaMin float64

	// Slope and intercept of the annealing line
	m float64
	c float64

	nSteps int
}

// newAnnealedGaussian returns a new annealing schedule. If sigmaMin is
// nil, the standard deviation is constant at sigma.
func newAnnealedGaussian(mu, sigma float64, sigmaMin *float64,
	nStepsAnnealing int) (annealedGaussian, error) {
	if sigma < 0 {
		return annealedGaussian{}, fmt.Errorf("newAnnealedGaussian: sigma "+
			"must be non-negative \n\twant(>=0) \n\thave(%v)", sigma)
	}

	if sigmaMin == nil {
		return annealedGaussian{
			mu:       mu,
			sigma:    sigma,
			sigmaMin: sigma,
			m:        0,
			c:        sigma,
		}, nil
	}

	if nStepsAnnealing < 1 {
		return annealedGaussian{}, fmt.Errorf("newAnnealedGaussian: "+
			"annealing steps must be positive \n\twant(>0) \n\thave(%v)",
			nStepsAnnealing)
	}
	if *sigmaMin > sigma {
		return annealedGaussian{}, fmt.Errorf("newAnnealedGaussian: "+
			"sigmaMin cannot exceed sigma \n\twant(<=%v) \n\thave(%v)",
			sigma, *sigmaMin)
	}

	return annealedGaussian{
		mu:       mu,
		sigma:    sigma,
		sigmaMin: *sigmaMin,
		m:        -(sigma - *sigmaMin) / float64(nStepsAnnealing),
		c:        sigma,
	}, nil
}

// CurrentSigma returns the annealed standard deviation at the current
// step
func (a *annealedGaussian) CurrentSigma() float64 {
	return math.Max(a.sigmaMin, a.m*float64(a.nSteps)+a.c)
}

// Steps returns the number of samples drawn so far
func (a *annealedGaussian) Steps() int {
	return a.nSteps
}

// Annealing returns whether the standard deviation is annealed
func (a *annealedGaussian) Annealing() bool {
	return a.m != 0
}
