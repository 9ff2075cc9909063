package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/navbench/jackalrl/internal/navclient"
	"github.com/navbench/jackalrl/pkg/config"
	"github.com/navbench/jackalrl/pkg/coord"
	"github.com/navbench/jackalrl/pkg/env"
	"github.com/navbench/jackalrl/pkg/geometry"
	"github.com/navbench/jackalrl/pkg/nav"
	"github.com/navbench/jackalrl/pkg/observation"
	"github.com/navbench/jackalrl/pkg/policy"
	"github.com/navbench/jackalrl/pkg/rollout"
	"github.com/navbench/jackalrl/pkg/trajectory"
)

var (
	actorID   int
	bufferDir string
	navURL    string
	pathDir   string
	episodes  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jackalrl",
		Short: "Distributed navigation-policy training actor for the Jackal robot.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one actor against the navigation bridge",
		RunE:  runActor,
	}
	runCmd.Flags().IntVar(&actorID, "id", 0, "actor id, assigns the world and the rng seed")
	runCmd.Flags().StringVar(&bufferDir, "buffer", "", "shared buffer directory published by the coordinator")
	runCmd.Flags().StringVar(&navURL, "nav-url", "http://localhost:8880", "base URL of the navigation bridge")
	runCmd.Flags().StringVar(&pathDir, "path-dir", "worlds/BARN/path_files", "directory holding BARN path files")
	runCmd.Flags().IntVar(&episodes, "episodes", 0, "episodes to run before exiting, 0 for unbounded")
	runCmd.MarkFlagRequired("buffer")

	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.Execute()
}

func runActor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("shutting down")
		cancel()
	}()

	coordClient := coord.NewClient(bufferDir)
	rawCfg, err := coordClient.AwaitConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch run config: %v", err)
	}
	cfg, err := config.Parse(rawCfg)
	if err != nil {
		return err
	}

	world := cfg.WorldName(actorID)
	start, goal, err := resolveStartGoal(cfg, world)
	if err != nil {
		return err
	}
	log.Printf("actor %d: world %s, start (%.3f, %.3f), goal (%.3f, %.3f)",
		actorID, world, start.X, start.Y, goal.X, goal.Y)

	bridge := navclient.New(navURL)
	state := nav.NewRobotState()
	poller := navclient.NewPoller(bridge, state)
	go poller.Run(ctx)

	mb := nav.NewMoveBase(bridge, state, nav.WithGoal(goal))

	builder, err := observation.NewBuilder(
		observation.Kind(cfg.Env.Kind), cfg.Env.Params.LaserClip)
	if err != nil {
		return err
	}

	sim := env.New(bridge, mb, builder,
		env.WithWorldName(world),
		env.WithStartPose(start),
		env.WithMaxStep(cfg.Env.Params.MaxStep),
		env.WithTimeStep(cfg.Env.Params.TimeStepDuration()),
		env.WithRewards(cfg.Env.Params.SlackReward, cfg.Env.Params.FailureRew, cfg.Env.Params.SuccessRew),
		env.WithParamList(cfg.Env.Params.ParamList),
	)

	space := policy.Space{
		Names: cfg.Env.Params.ParamList,
		Low:   cfg.Env.Params.ActionLow,
		High:  cfg.Env.Params.ActionHigh,
	}
	if err := space.Validate(); err != nil {
		return err
	}

	writer, err := trajectory.NewWriter(bufferDir, actorID)
	if err != nil {
		return err
	}

	actor := &rollout.Actor{
		ID:       actorID,
		Source:   coordClient,
		Env:      sim,
		Policy:   policy.NewLinearPolicy(),
		Space:    space,
		Writer:   writer,
		Episodes: episodes,
	}
	return actor.Run(ctx)
}

// resolveStartGoal picks the episode start pose and goal: BARN worlds
// derive both from their precomputed path, everything else reads them from
// the config.
func resolveStartGoal(cfg *config.Config, world string) (start, goal geometry.Pose, err error) {
	if env.IsBARN(world) {
		id, err := env.BARNWorldID(world)
		if err != nil {
			return geometry.Pose{}, geometry.Pose{}, err
		}
		path, err := env.FilePathSource{Dir: pathDir}.Path(id)
		if err != nil {
			return geometry.Pose{}, geometry.Pose{}, err
		}
		return env.BARNStartGoal(path)
	}

	start, ok := cfg.Env.Params.StartPose()
	if !ok {
		return geometry.Pose{}, geometry.Pose{}, fmt.Errorf("world %s: no init_position configured", world)
	}
	goal, ok = cfg.Env.Params.Goal()
	if !ok {
		return geometry.Pose{}, geometry.Pose{}, fmt.Errorf("world %s: no goal_position configured", world)
	}
	return start, goal, nil
}
