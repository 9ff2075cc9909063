// Package config defines the run configuration published by the training
// coordinator and shared by every actor.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/navbench/jackalrl/pkg/geometry"
)

// Config is the full run configuration document.
type Config struct {
	Env      EnvConfig      `yaml:"env_config"`
	Training TrainingConfig `yaml:"training_config"`
	Condor   CondorConfig   `yaml:"condor_config"`
}

// EnvConfig selects the environment variant and its episode parameters.
type EnvConfig struct {
	Kind   string    `yaml:"env_id"`
	Worlds []World   `yaml:"worlds"`
	Params EnvParams `yaml:"kwargs"`
}

// EnvParams are the per-episode knobs forwarded to the environment.
type EnvParams struct {
	WorldName    World         `yaml:"world_name"`
	InitPosition []float64     `yaml:"init_position"`
	GoalPosition []float64     `yaml:"goal_position"`
	MaxStep      int       `yaml:"max_step"`
	TimeStep     float64   `yaml:"time_step"` // seconds
	SlackReward  float64   `yaml:"slack_reward"`
	FailureRew   float64   `yaml:"failure_reward"`
	SuccessRew   float64   `yaml:"success_reward"`
	LaserClip    float64   `yaml:"laser_clip"`
	ParamList    []string  `yaml:"param_list"`
	ActionLow    []float64 `yaml:"action_low"`
	ActionHigh   []float64 `yaml:"action_high"`
}

// TimeStepDuration converts the configured control tick to a duration.
func (p EnvParams) TimeStepDuration() time.Duration {
	return time.Duration(p.TimeStep * float64(time.Second))
}

// TrainingConfig carries the coordinator-side knobs actors need to agree
// on.
type TrainingConfig struct {
	Epsilon   float64 `yaml:"epsilon"`
	BufferDir string  `yaml:"buffer_path"`
}

// CondorConfig describes the actor fleet.
type CondorConfig struct {
	NumActors int `yaml:"num_actor"`
}

// World is a world name. The coordinator may publish it as a bare integer,
// which is shorthand for the standard world file of that index.
type World string

func (w *World) UnmarshalYAML(value *yaml.Node) error {
	var id int
	if err := value.Decode(&id); err == nil {
		*w = World(fmt.Sprintf("world_%d.world", id))
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("world name: %v", err)
	}
	*w = World(s)
	return nil
}

// Load reads and parses the run configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %v", err)
	}
	return Parse(raw)
}

// Parse parses a run configuration document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %v", err)
	}
	return &cfg, nil
}

// WorldName returns the world an actor id is assigned to. With a worlds
// list, actors tile over it round-robin; otherwise every actor runs the
// single configured world.
func (c *Config) WorldName(actorID int) string {
	if len(c.Env.Worlds) > 0 {
		return string(c.Env.Worlds[actorID%len(c.Env.Worlds)])
	}
	return string(c.Env.Params.WorldName)
}

// StartPose returns the configured initial pose, if any.
func (p EnvParams) StartPose() (geometry.Pose, bool) {
	if len(p.InitPosition) < 3 {
		return geometry.Pose{}, false
	}
	return geometry.Pose{X: p.InitPosition[0], Y: p.InitPosition[1], Psi: p.InitPosition[2]}, true
}

// Goal returns the configured goal position, if any.
func (p EnvParams) Goal() (geometry.Pose, bool) {
	if len(p.GoalPosition) < 2 {
		return geometry.Pose{}, false
	}
	return geometry.Pose{X: p.GoalPosition[0], Y: p.GoalPosition[1]}, true
}
