// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm for environments with continuous actions.
//
// A DDPG agent learns a deterministic actor, which maps states to
// actions, and a critic, which maps state-action pairs to action
// values. Slowly-moving target copies of both networks are used to
// compute the bootstrapped targets of the critic. Exploration is
// performed by adding samples of a noise process to the actions of the
// actor.
//
// An agent is created with New and must be compiled with its
// collaborators (see Compile) before it can be trained.
package ddpg

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/memory"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	"github.com/samuelfneumann/goddpg/optimizer"
	"github.com/samuelfneumann/goddpg/policy"
	"github.com/samuelfneumann/goddpg/preprocessor"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var (
	// ErrNotCompiled is returned when an operation that requires a
	// compiled agent is called before Compile
	ErrNotCompiled = errors.New("agent is not compiled")

	// ErrAlreadyCompiled is returned when Compile is called on an agent
	// that has already been compiled
	ErrAlreadyCompiled = errors.New("agent is already compiled")
)

// Memory is the source of transitions a DDPG agent learns from
type Memory interface {
	// RandMinibatch returns a batch of batchSize transitions sampled
	// uniformly at random
	RandMinibatch(batchSize int) (memory.Minibatch, error)
}

// DDPG implements the Deep Deterministic Policy Gradient algorithm
type DDPG struct {
	spec   agent.EnvSpec
	config Config
	phase  agent.Phase
	seed   uint64
	logger *log.Logger

	// Actor used for action selection, with a batch size of 1
	behaviour   network.NeuralNet
	behaviourVM G.VM

	// Actor trained with the deterministic policy gradient. The graph
	// of the actor holds a copy of the critic, evaluated on the actions
	// of the actor.
	actor         network.NeuralNet
	actorCritic   network.NeuralNet
	actorVM       G.VM
	actorLossVal  G.Value
	targetActor   network.NeuralNet
	targetActorVM G.VM

	// Critic trained to minimize the mean squared TD error
	critic         network.NeuralNet
	criticVM       G.VM
	criticTarget   *G.Node
	criticLossVal  G.Value
	targetCritic   network.NeuralNet
	targetCriticVM G.VM

	noise noise.Process

	// Collaborators, set by Compile
	memory       Memory
	optimizer    *optimizer.Optimizer
	policy       policy.Policy
	preprocessor preprocessor.Preprocessor

	// One solver per network, split from the optimizer. The target
	// networks are forward-only and only change through Set or Polyak,
	// so their solvers are held but never stepped.
	actorSolver        G.Solver
	criticSolver       G.Solver
	targetActorSolver  G.Solver
	targetCriticSolver G.Solver

	gradientSteps int
}

// New creates a new DDPG agent for an environment described by spec.
// The actor, critic, and target networks are built when the agent is
// created, and the agent can select actions immediately. The noise
// process of the agent is seeded with seed.
func New(spec agent.EnvSpec, config Config, seed uint64) (*DDPG, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	n, err := config.Noise.Create(spec.ActionDim, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create noise process: %v",
			err)
	}

	d := &DDPG{
		spec:   spec,
		config: config,
		phase:  agent.Constructed,
		seed:   seed,
		logger: log.New(os.Stderr, "ddpg: ", log.LstdFlags),
		noise:  n,
	}

	if err := d.buildModel(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return d, nil
}

// buildModel builds the actor and critic, their target networks, and
// the actor used for action selection. Target networks start with the
// same weights as the networks they track.
func (d *DDPG) buildModel() error {
	hidden := d.config.Hidden()
	init := d.config.InitWFn.InitWFn()
	batch := d.config.BatchSize

	actor, err := network.NewActor(G.NewGraph(), d.spec.StateDim,
		d.spec.ActionDim, batch, hidden, d.config.OutputActivation, init)
	if err != nil {
		return fmt.Errorf("buildModel: could not create actor: %v", err)
	}
	d.actor = actor

	d.targetActor, err = actor.CloneWithBatch(batch)
	if err != nil {
		return fmt.Errorf("buildModel: could not create target actor: %v",
			err)
	}
	d.targetActorVM = G.NewTapeMachine(d.targetActor.Graph())

	d.behaviour, err = actor.CloneWithBatch(1)
	if err != nil {
		return fmt.Errorf("buildModel: could not create behaviour "+
			"actor: %v", err)
	}
	d.behaviourVM = G.NewTapeMachine(d.behaviour.Graph())

	critic, err := network.NewCritic(G.NewGraph(), d.spec.StateDim,
		d.spec.ActionDim, batch, hidden, d.config.OutputActivation, init)
	if err != nil {
		return fmt.Errorf("buildModel: could not create critic: %v", err)
	}
	d.critic = critic

	d.targetCritic, err = critic.CloneWithBatch(batch)
	if err != nil {
		return fmt.Errorf("buildModel: could not create target critic: %v",
			err)
	}
	d.targetCriticVM = G.NewTapeMachine(d.targetCritic.Graph())

	d.logger.Printf("Actor model: state(%d) -> %v -> action(%d, %v)",
		d.spec.StateDim, units(hidden), d.spec.ActionDim,
		d.config.OutputActivation)
	d.logger.Printf("Critic model: state(%d) + action(%d) -> %v -> "+
		"value(1, %v)", d.spec.StateDim, d.spec.ActionDim, units(hidden),
		d.config.OutputActivation)

	return nil
}

// Compile binds the agent to its collaborators and prepares the actor
// and critic for training. The optimizer is split into one solver per
// network. Any collaborator implementing agent.Binder is bound to a
// View of the agent before the agent is compiled, and Compile fails if
// any Bind fails.
//
// Compile may be called only once.
func (d *DDPG) Compile(mem Memory, opt *optimizer.Optimizer,
	pol policy.Policy, pre preprocessor.Preprocessor) error {
	if d.phase != agent.Constructed {
		return fmt.Errorf("compile: %w", ErrAlreadyCompiled)
	}
	if mem == nil || opt == nil || pol == nil || pre == nil {
		return fmt.Errorf("compile: all collaborators must be non-nil")
	}

	v := view{d}
	for _, c := range []interface{}{mem, opt, pol, pre} {
		if b, ok := c.(agent.Binder); ok {
			if err := b.Bind(v); err != nil {
				return fmt.Errorf("compile: could not bind %T: %v", c, err)
			}
		}
	}

	if err := d.compileSolvers(opt); err != nil {
		return fmt.Errorf("compile: %v", err)
	}
	if err := d.compileCritic(); err != nil {
		return fmt.Errorf("compile: %v", err)
	}
	if err := d.compileActor(); err != nil {
		return fmt.Errorf("compile: %v", err)
	}

	d.memory = mem
	d.optimizer = opt
	d.policy = pol
	d.preprocessor = pre
	d.phase = agent.Compiled

	d.logger.Printf("Compiled:\nAgent, Memory, Optimizer, Policy, "+
		"Preprocessor:\n%v, %T, %v, %T, %T", d, mem, opt, pol, pre)
	return nil
}

// compileSolvers splits the optimizer into the solvers of each network
func (d *DDPG) compileSolvers(opt *optimizer.Optimizer) error {
	if !opt.IsSplit() {
		if err := opt.Split(); err != nil {
			return err
		}
	}

	actor, err := opt.Actor()
	if err != nil {
		return err
	}
	targetActor, err := opt.TargetActor()
	if err != nil {
		return err
	}
	critic, err := opt.Critic()
	if err != nil {
		return err
	}
	targetCritic, err := opt.TargetCritic()
	if err != nil {
		return err
	}

	d.actorSolver = actor
	d.targetActorSolver = targetActor
	d.criticSolver = critic
	d.targetCriticSolver = targetCritic
	return nil
}

// compileCritic adds the mean squared TD error to the graph of the
// critic
func (d *DDPG) compileCritic() error {
	g := d.critic.Graph()
	d.criticTarget = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(d.config.BatchSize, 1),
		G.WithName("criticTarget"),
		G.WithInit(G.Zeroes()),
	)

	loss := G.Must(G.Sub(d.critic.Prediction(), d.criticTarget))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))
	G.Read(loss, &d.criticLossVal)

	if _, err := G.Grad(loss, d.critic.Learnables()...); err != nil {
		return fmt.Errorf("compileCritic: could not compute gradient: %v",
			err)
	}
	d.criticVM = G.NewTapeMachine(g,
		G.BindDualValues(d.critic.Learnables()...))
	return nil
}

// compileActor adds the deterministic policy gradient objective to the
// graph of the actor: the negated mean action value of the actions of
// the actor, differentiated only with respect to the actor's weights
func (d *DDPG) compileActor() error {
	g := d.actor.Graph()

	var err error
	d.actorCritic, err = network.CriticOn(d.critic, d.actor.Inputs()[0],
		d.actor.Prediction())
	if err != nil {
		return fmt.Errorf("compileActor: %v", err)
	}

	loss := G.Must(G.Mean(d.actorCritic.Prediction()))
	loss = G.Must(G.Neg(loss))
	G.Read(loss, &d.actorLossVal)

	if _, err := G.Grad(loss, d.actor.Learnables()...); err != nil {
		return fmt.Errorf("compileActor: could not compute gradient: %v",
			err)
	}
	d.actorVM = G.NewTapeMachine(g, G.BindDualValues(d.actor.Learnables()...))
	return nil
}

// SelectAction returns the action of the actor in state with a sample
// of the noise process added to it. The returned action is not
// clipped to the action bounds of the environment.
func (d *DDPG) SelectAction(state mat.Vector) (*mat.VecDense, error) {
	if state.Len() != d.spec.StateDim {
		return nil, fmt.Errorf("selectAction: invalid state dimension "+
			"\n\twant(%v) \n\thave(%v)", d.spec.StateDim, state.Len())
	}

	action, err := d.greedy(state)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}

	action.AddVec(action, d.noise.Sample())
	return action, nil
}

// greedy returns the action of the actor in state
func (d *DDPG) greedy(state mat.Vector) (*mat.VecDense, error) {
	input := make([]float64, state.Len())
	for i := range input {
		input[i] = state.AtVec(i)
	}
	if err := d.behaviour.SetInput(input); err != nil {
		return nil, err
	}

	if err := d.behaviourVM.RunAll(); err != nil {
		return nil, err
	}
	defer d.behaviourVM.Reset()

	output := d.behaviour.Output().Data().([]float64)
	action := make([]float64, len(output))
	copy(action, output)
	return mat.NewVecDense(len(action), action), nil
}

// ToTrain returns whether the agent should train at the current step
// of sv. Training happens every TrainPerNNewExp steps, at the last
// step before the timestep limit, and at the end of each episode, but
// never at the first step of an episode.
func (d *DDPG) ToTrain(sv agent.SysVars) bool {
	if sv.T <= 0 {
		return false
	}
	return sv.T%d.config.TrainPerNNewExp == 0 ||
		sv.T == d.spec.TimestepLimit-1 || sv.Done
}

// TrainAnEpoch performs a single gradient step on the critic and then
// on the actor, using a minibatch sampled from the memory of the
// agent, and returns the sum of the critic and actor losses. Target
// networks are updated every TargetUpdateInterval gradient steps.
//
// Errors returned by the memory are wrapped, so that errors such as
// insufficient samples can be detected by the caller.
func (d *DDPG) TrainAnEpoch() (float64, error) {
	if d.phase == agent.Constructed {
		return 0, fmt.Errorf("trainAnEpoch: %w", ErrNotCompiled)
	}

	batch, err := d.memory.RandMinibatch(d.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("trainAnEpoch: %w", err)
	}
	if n := batch.Len(); n != d.config.BatchSize {
		return 0, fmt.Errorf("trainAnEpoch: invalid minibatch size "+
			"\n\twant(%v) \n\thave(%v)", d.config.BatchSize, n)
	}
	if err := batch.Validate(d.spec.StateDim, d.spec.ActionDim); err != nil {
		return 0, fmt.Errorf("trainAnEpoch: %v", err)
	}

	targets, err := d.criticTargets(batch)
	if err != nil {
		return 0, fmt.Errorf("trainAnEpoch: %v", err)
	}

	criticLoss, err := d.trainCritic(batch, targets)
	if err != nil {
		return 0, fmt.Errorf("trainAnEpoch: %v", err)
	}

	actorLoss, err := d.trainActor(batch)
	if err != nil {
		return 0, fmt.Errorf("trainAnEpoch: %v", err)
	}

	d.gradientSteps++
	if d.gradientSteps%d.config.TargetUpdateInterval == 0 {
		if err := d.updateTargets(); err != nil {
			return 0, fmt.Errorf("trainAnEpoch: %v", err)
		}
	}

	// Keep the behaviour actor in sync with the trained actor
	if err := d.behaviour.Set(d.actor); err != nil {
		return 0, fmt.Errorf("trainAnEpoch: could not set behaviour "+
			"actor: %v", err)
	}

	return criticLoss + actorLoss, nil
}

// criticTargets returns the bootstrapped targets of the critic,
//
//	y = r + γ * (1 - terminal) * Q'(s', μ'(s'))
//
// where Q' and μ' are the target critic and target actor.
func (d *DDPG) criticTargets(batch memory.Minibatch) ([]float64, error) {
	nextStates := make([]float64, len(batch.NextStates))
	copy(nextStates, batch.NextStates)
	if err := d.targetActor.SetInput(nextStates); err != nil {
		return nil, fmt.Errorf("criticTargets: %v", err)
	}
	if err := d.targetActorVM.RunAll(); err != nil {
		return nil, fmt.Errorf("criticTargets: %v", err)
	}
	nextActions := make([]float64, d.config.BatchSize*d.spec.ActionDim)
	copy(nextActions, d.targetActor.Output().Data().([]float64))
	d.targetActorVM.Reset()

	if err := d.targetCritic.SetInput(nextStates, nextActions); err != nil {
		return nil, fmt.Errorf("criticTargets: %v", err)
	}
	if err := d.targetCriticVM.RunAll(); err != nil {
		return nil, fmt.Errorf("criticTargets: %v", err)
	}
	nextValues := d.targetCritic.Output().Data().([]float64)

	targets := make([]float64, d.config.BatchSize)
	for i := range targets {
		targets[i] = batch.Rewards[i] +
			d.config.Gamma*(1-batch.Terminals[i])*nextValues[i]
	}
	d.targetCriticVM.Reset()

	return targets, nil
}

// trainCritic performs a single gradient step on the critic towards
// targets and returns the loss before the step
func (d *DDPG) trainCritic(batch memory.Minibatch,
	targets []float64) (float64, error) {
	states := make([]float64, len(batch.States))
	copy(states, batch.States)
	actions := make([]float64, len(batch.Actions))
	copy(actions, batch.Actions)
	if err := d.critic.SetInput(states, actions); err != nil {
		return 0, fmt.Errorf("trainCritic: %v", err)
	}

	targetTensor := tensor.New(
		tensor.WithBacking(targets),
		tensor.WithShape(d.criticTarget.Shape()...),
	)
	if err := G.Let(d.criticTarget, targetTensor); err != nil {
		return 0, fmt.Errorf("trainCritic: could not set targets: %v", err)
	}

	if err := d.criticVM.RunAll(); err != nil {
		return 0, fmt.Errorf("trainCritic: %v", err)
	}
	defer d.criticVM.Reset()

	if err := d.criticSolver.Step(d.critic.Model()); err != nil {
		return 0, fmt.Errorf("trainCritic: could not step solver: %v", err)
	}

	return d.criticLossVal.Data().(float64), nil
}

// trainActor performs a single gradient step on the actor using the
// current weights of the critic and returns the loss before the step
func (d *DDPG) trainActor(batch memory.Minibatch) (float64, error) {
	if err := d.actorCritic.Set(d.critic); err != nil {
		return 0, fmt.Errorf("trainActor: could not copy critic: %v", err)
	}

	states := make([]float64, len(batch.States))
	copy(states, batch.States)
	if err := d.actor.SetInput(states); err != nil {
		return 0, fmt.Errorf("trainActor: %v", err)
	}

	if err := d.actorVM.RunAll(); err != nil {
		return 0, fmt.Errorf("trainActor: %v", err)
	}
	defer d.actorVM.Reset()

	if err := d.actorSolver.Step(d.actor.Model()); err != nil {
		return 0, fmt.Errorf("trainActor: could not step solver: %v", err)
	}

	return d.actorLossVal.Data().(float64), nil
}

// updateTargets moves the target networks towards the live networks
func (d *DDPG) updateTargets() error {
	if d.config.Tau == 1.0 {
		if err := d.targetActor.Set(d.actor); err != nil {
			return fmt.Errorf("updateTargets: %v", err)
		}
		if err := d.targetCritic.Set(d.critic); err != nil {
			return fmt.Errorf("updateTargets: %v", err)
		}
		return nil
	}

	if err := d.targetActor.Polyak(d.actor, d.config.Tau); err != nil {
		return fmt.Errorf("updateTargets: %v", err)
	}
	if err := d.targetCritic.Polyak(d.critic, d.config.Tau); err != nil {
		return fmt.Errorf("updateTargets: %v", err)
	}
	return nil
}

// Train performs NEpoch epochs of training, appends the mean loss over
// the epochs to sv.Loss, and returns the mean loss
func (d *DDPG) Train(sv *agent.SysVars) (float64, error) {
	if d.phase == agent.Constructed {
		return 0, fmt.Errorf("train: %w", ErrNotCompiled)
	}

	var total float64
	for i := 0; i < d.config.NEpoch; i++ {
		loss, err := d.TrainAnEpoch()
		if err != nil {
			return 0, fmt.Errorf("train: %w", err)
		}
		total += loss
	}

	loss := total / float64(d.config.NEpoch)
	sv.Loss = append(sv.Loss, loss)
	d.phase = agent.Training

	return loss, nil
}

// Update resets the noise process at the end of an episode if the
// agent is configured to do so
func (d *DDPG) Update(sv *agent.SysVars) error {
	if d.config.ResetNoiseOnDone && sv.Done {
		d.noise.Reset()
	}
	return nil
}

// EnvSpec returns the environment specification of the agent
func (d *DDPG) EnvSpec() agent.EnvSpec {
	return d.spec
}

// Phase returns the lifecycle phase of the agent
func (d *DDPG) Phase() agent.Phase {
	return d.phase
}

// Config returns the configuration of the agent
func (d *DDPG) Config() Config {
	return d.config
}

// Noise returns the noise process of the agent
func (d *DDPG) Noise() noise.Process {
	return d.noise
}

// Policy returns the policy the agent was compiled with, or nil if the
// agent is not compiled
func (d *DDPG) Policy() policy.Policy {
	return d.policy
}

// Preprocessor returns the preprocessor the agent was compiled with,
// or nil if the agent is not compiled
func (d *DDPG) Preprocessor() preprocessor.Preprocessor {
	return d.preprocessor
}

// GradientSteps returns the number of gradient steps taken
func (d *DDPG) GradientSteps() int {
	return d.gradientSteps
}

// SetLogger sets the logger of the agent. A nil logger discards all
// output.
func (d *DDPG) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	d.logger = l
}

// Close closes the VMs of the agent
func (d *DDPG) Close() error {
	vms := []G.VM{d.behaviourVM, d.targetActorVM, d.targetCriticVM,
		d.actorVM, d.criticVM}

	var err error
	for _, vm := range vms {
		if vm == nil {
			continue
		}
		if closeErr := vm.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// String implements the fmt.Stringer interface
func (d *DDPG) String() string {
	return fmt.Sprintf("DDPG(state: %d, action: %d, phase: %v)",
		d.spec.StateDim, d.spec.ActionDim, d.phase)
}

// view is the View of a DDPG agent given to its collaborators
type view struct {
	d *DDPG
}

func (v view) EnvSpec() agent.EnvSpec { return v.d.EnvSpec() }
func (v view) Phase() agent.Phase     { return v.d.Phase() }

// units returns the number of units in each layer of a
func units(a network.Architecture) []int {
	u := make([]int, len(a))
	for i := range a {
		u[i] = a[i].Units
	}
	return u
}
