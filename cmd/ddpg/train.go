package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/gosuri/uilive"
	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/agent/ddpg"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/goddpg/experiment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/recorder"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	"github.com/samuelfneumann/goddpg/memory"
	"github.com/samuelfneumann/goddpg/optimizer"
	"github.com/samuelfneumann/goddpg/policy"
	"github.com/samuelfneumann/goddpg/preprocessor"
	"github.com/samuelfneumann/goddpg/solver"
	"github.com/samuelfneumann/goddpg/utils/progressbar"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"
)

type trainFlags struct {
	configPath      string
	seed            uint64
	steps           int
	episodeSteps    int
	discount        float64
	replayMin       int
	replayMax       int
	learningRate    float64
	clip            float64
	outDir          string
	database        string
	noRecord        bool
	checkpointEvery int
	quiet           bool
}

func trainCommand() *cobra.Command {
	f := trainFlags{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a DDPG agent on the pendulum swing-up task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("config") {
				f.configPath = os.Getenv("DDPG_CONFIG")
			}
			if !cmd.Flags().Changed("seed") {
				if s, ok := os.LookupEnv("DDPG_SEED"); ok {
					seed, err := strconv.ParseUint(s, 10, 64)
					if err != nil {
						return fmt.Errorf("train: invalid DDPG_SEED: %v", err)
					}
					f.seed = seed
				}
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			doneCh := make(chan struct{})
			defer close(doneCh)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				select {
				case <-sigCh:
				case <-doneCh:
				}
				cancel()
			}()

			return train(ctx, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Path to a JSON agent configuration (default: $DDPG_CONFIG or the default configuration)")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed of the environment, replay buffer, and noise process (default: $DDPG_SEED or 0)")
	flags.IntVar(&f.steps, "steps", 10_000, "Total number of environment steps")
	flags.IntVar(&f.episodeSteps, "episode-steps", 200, "Maximum number of steps per episode")
	flags.Float64Var(&f.discount, "discount", 0.99, "Discount of the environment")
	flags.IntVar(&f.replayMin, "replay-min", 100, "Number of transitions collected before training")
	flags.IntVar(&f.replayMax, "replay-max", 100_000, "Capacity of the replay buffer")
	flags.Float64Var(&f.learningRate, "learning-rate", 1e-3, "Learning rate of the Adam solvers")
	flags.Float64Var(&f.clip, "clip", 10_000, "Gradient clipping value, <= 0 disables clipping")
	flags.StringVar(&f.outDir, "out", ".", "Directory to save returns, episode lengths, and checkpoints in")
	flags.StringVar(&f.database, "db", "", "SQLite database to record the run in (default: a new uniquely named database)")
	flags.BoolVar(&f.noRecord, "no-record", false, "Do not record the run in a database")
	flags.IntVar(&f.checkpointEvery, "checkpoint-every", 0, "Save the agent every n steps, 0 disables checkpointing")
	flags.BoolVar(&f.quiet, "quiet", false, "Do not display a progress bar")

	return cmd
}

// train runs a single online experiment described by f
func train(ctx context.Context, f trainFlags) error {
	config, err := loadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -1, Max: 1},
	}, f.seed)
	task := pendulum.NewSwingUp(starter, f.episodeSteps)
	env, _, err := pendulum.NewContinuous(task, f.discount)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	spec, err := agent.EnvSpecFrom(env, f.episodeSteps)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	a, err := ddpg.New(spec, config, f.seed)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	defer a.Close()
	if f.quiet {
		a.SetLogger(nil)
	}

	replay, err := memory.NewReplay(max(f.replayMin, config.BatchSize),
		f.replayMax, spec.StateDim, spec.ActionDim, f.seed)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	s, err := solver.NewAdam(f.learningRate, 1e-8, 0.9, 0.999, 1, f.clip)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	opt, err := optimizer.New(s)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	pol, err := policy.NewBounded(env.ActionSpec())
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	pre, err := preprocessor.NewNormalise(env.ObservationSpec())
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	if err := a.Compile(replay, opt, pol, pre); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	returns := tracker.NewReturn(filepath.Join(f.outDir, "return.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(f.outDir,
		"episode_length.bin"))
	trackers := []tracker.Tracker{returns, lengths}

	if !f.noRecord {
		rec, err := recorder.New(f.database, fmt.Sprintf("%v seed=%v",
			env, f.seed))
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Printf("Warning: %v", err)
			}
		}()
		trackers = append(trackers, rec)
	}

	var checkpointers []checkpointer.Checkpointer
	if f.checkpointEvery > 0 {
		c, err := checkpointer.NewNStep(f.checkpointEvery, a,
			checkpointer.FilenameEnumerator(0,
				filepath.Join(f.outDir, "checkpoint"), ".bin"))
		if err != nil {
			return fmt.Errorf("train: %v", err)
		}
		checkpointers = append(checkpointers, c)
	}

	opts := []experiment.Option{
		experiment.WithTrackers(trackers...),
		experiment.WithCheckpointers(checkpointers...),
	}

	if !f.quiet {
		writer := uilive.New()
		writer.Start()
		defer writer.Stop()

		episodes := (f.steps + f.episodeSteps - 1) / f.episodeSteps
		bar := progressbar.New(writer, 40, episodes)
		opts = append(opts, experiment.WithEpisodeHook(
			func(sv agent.SysVars) {
				bar.Increment()
				suffix := fmt.Sprintf("episode: %d return: %.2f",
					sv.Episode, sv.TotalReward)
				if n := len(sv.Loss); n > 0 {
					suffix += fmt.Sprintf(" loss: %.4f", sv.Loss[n-1])
				}
				bar.SetSuffix(suffix)
				bar.Display()
			}))
	}

	exp, err := experiment.NewOnline(env, a, replay, f.steps, opts...)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}

	runErr := exp.Run(ctx)
	if err := exp.Save(); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("train: %w", runErr)
	}

	if r := returns.Returns(); len(r) > 0 {
		fmt.Printf("Finished %d episodes, final return: %.2f\n", len(r),
			r[len(r)-1])
	}
	return nil
}
