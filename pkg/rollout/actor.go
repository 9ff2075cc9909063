// Package rollout runs the actor loop: pull the latest policy snapshot,
// roll out one episode against the environment, persist the trajectory,
// repeat.
package rollout

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/emer/etable/etensor"

	"github.com/navbench/jackalrl/pkg/coord"
	"github.com/navbench/jackalrl/pkg/env"
	"github.com/navbench/jackalrl/pkg/policy"
	"github.com/navbench/jackalrl/pkg/trajectory"
)

// baseSeed anchors per-actor rng seeding so runs are reproducible per
// actor id.
const baseSeed = 43

// PolicySource provides published policy snapshots.
type PolicySource interface {
	LoadSnapshot(ctx context.Context) (coord.Snapshot, error)
}

// Environment is the episode surface the actor drives.
type Environment interface {
	Reset(ctx context.Context) (*etensor.Float64, error)
	Step(ctx context.Context, action []float64) (*etensor.Float64, float64, bool, env.Info, error)
	StepCount() int
}

// Actor rolls out episodes with the freshest published policy and writes
// each finished episode to the trajectory buffer.
type Actor struct {
	ID       int
	Source   PolicySource
	Env      Environment
	Policy   policy.Policy
	Space    policy.Space
	Writer   *trajectory.Writer
	Episodes int // 0 or below runs until the context is cancelled
	Rand     *rand.Rand
}

// NewRand returns the deterministic rng for an actor id.
func NewRand(actorID int) *rand.Rand {
	return rand.New(rand.NewSource(baseSeed + int64(actorID)))
}

// Run executes the rollout loop. It returns on context cancellation, on a
// coordinator that never initializes, or on an environment invariant
// failure.
func (a *Actor) Run(ctx context.Context) error {
	rng := a.Rand
	if rng == nil {
		rng = NewRand(a.ID)
	}

	for episode := 0; a.Episodes <= 0 || episode < a.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.runEpisode(ctx, episode, rng); err != nil {
			return fmt.Errorf("actor %d episode %d: %v", a.ID, episode, err)
		}
	}
	return nil
}

func (a *Actor) runEpisode(ctx context.Context, episode int, rng *rand.Rand) error {
	snap, err := a.Source.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := a.Policy.SetParams(snap.Params); err != nil {
		return fmt.Errorf("apply policy snapshot: %v", err)
	}
	selector := &policy.Selector{
		Policy:  a.Policy,
		Space:   a.Space,
		Epsilon: snap.Epsilon,
		Rand:    rng,
	}

	obs, err := a.Env.Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset: %v", err)
	}

	total := 0.0
	for {
		action, err := selector.Select(obs)
		if err != nil {
			return fmt.Errorf("select action: %v", err)
		}
		next, rew, done, info, err := a.Env.Step(ctx, action)
		if err != nil {
			return fmt.Errorf("step: %v", err)
		}
		total += rew

		flat := make([]float64, len(obs.Values))
		copy(flat, obs.Values)
		shape := make([]int, len(obs.Shp))
		copy(shape, obs.Shp)
		a.Writer.Append(trajectory.Step{
			Obs:      flat,
			ObsShape: shape,
			Action:   action,
			Reward:   rew,
			Done:     done,
			Info:     info,
		})

		obs = next
		if done {
			log.Printf("actor %d episode %d: %d steps, return %.1f, world %s",
				a.ID, episode, a.Env.StepCount(), total, info.World)
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := a.Writer.Flush(episode); err != nil {
		return fmt.Errorf("flush trajectory: %v", err)
	}
	return nil
}
