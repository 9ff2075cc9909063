// Package policy maps observations to planner-parameter actions. Policies
// are deployed as opaque parameter blobs published by the coordinator; the
// actor swaps them in between episodes.
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"github.com/emer/etable/etensor"
)

// Policy turns an observation tensor into an action vector. SetParams
// replaces the policy weights with a published snapshot; Deterministic
// reports whether the policy already injects its own exploration noise, in
// which case the epsilon-greedy selector never overrides it.
type Policy interface {
	SetParams(blob []byte) error
	Action(obs *etensor.Float64) ([]float64, error)
	Deterministic() bool
}

// Space is a box action space: per-dimension bounds over the planner
// parameters the policy controls.
type Space struct {
	Names []string
	Low   []float64
	High  []float64
}

// Dim returns the number of action dimensions.
func (s Space) Dim() int {
	return len(s.Low)
}

// Validate checks that the bounds are consistent.
func (s Space) Validate() error {
	if len(s.Low) != len(s.High) {
		return fmt.Errorf("action space: %d low bounds vs %d high bounds", len(s.Low), len(s.High))
	}
	if len(s.Names) > 0 && len(s.Names) != len(s.Low) {
		return fmt.Errorf("action space: %d names vs %d bounds", len(s.Names), len(s.Low))
	}
	for i := range s.Low {
		if s.Low[i] > s.High[i] {
			return fmt.Errorf("action space: dimension %d has low %v above high %v", i, s.Low[i], s.High[i])
		}
	}
	return nil
}

// Sample draws a uniform random action from the space.
func (s Space) Sample(rng *rand.Rand) []float64 {
	out := make([]float64, s.Dim())
	for i := range out {
		out[i] = s.Low[i] + rng.Float64()*(s.High[i]-s.Low[i])
	}
	return out
}

// Clamp bounds the action to the space in place and returns it.
func (s Space) Clamp(action []float64) []float64 {
	for i := range action {
		if i >= s.Dim() {
			break
		}
		if action[i] < s.Low[i] {
			action[i] = s.Low[i]
		}
		if action[i] > s.High[i] {
			action[i] = s.High[i]
		}
	}
	return action
}

// LinearWeights is the published parameter blob of a linear policy,
// gob-encoded: one weight row per action dimension over the flattened
// observation, plus a bias.
type LinearWeights struct {
	W [][]float64
	B []float64
}

// Encode serializes the weights into the blob format SetParams accepts.
func (w LinearWeights) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, fmt.Errorf("encode policy weights: %v", err)
	}
	return buf.Bytes(), nil
}

// LinearPolicy applies published linear weights to the flattened
// observation. Gaussian noise is the policy's own exploration when a noise
// scale is set, which makes it deterministic from the selector's point of
// view.
type LinearPolicy struct {
	weights    LinearWeights
	noiseScale float64
	rng        *rand.Rand
}

// LinearOption configures a LinearPolicy.
type LinearOption func(*LinearPolicy)

// WithNoise adds zero-mean Gaussian noise with the given scale to every
// action component.
func WithNoise(scale float64, rng *rand.Rand) LinearOption {
	return func(p *LinearPolicy) {
		p.noiseScale = scale
		p.rng = rng
	}
}

func NewLinearPolicy(opts ...LinearOption) *LinearPolicy {
	p := &LinearPolicy{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetParams replaces the weights with a published gob blob.
func (p *LinearPolicy) SetParams(blob []byte) error {
	var w LinearWeights
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&w); err != nil {
		return fmt.Errorf("decode policy weights: %v", err)
	}
	if len(w.B) != len(w.W) {
		return fmt.Errorf("policy weights: %d rows vs %d biases", len(w.W), len(w.B))
	}
	p.weights = w
	return nil
}

func (p *LinearPolicy) Action(obs *etensor.Float64) ([]float64, error) {
	if len(p.weights.W) == 0 {
		return nil, fmt.Errorf("policy has no weights set")
	}
	out := make([]float64, len(p.weights.W))
	for i, row := range p.weights.W {
		if len(row) != len(obs.Values) {
			return nil, fmt.Errorf("policy row %d: %d weights vs %d observation values", i, len(row), len(obs.Values))
		}
		v := p.weights.B[i]
		for j, w := range row {
			v += w * obs.Values[j]
		}
		if p.noiseScale > 0 {
			v += p.rng.NormFloat64() * p.noiseScale
		}
		out[i] = v
	}
	return out, nil
}

// Deterministic reports whether the policy explores on its own.
func (p *LinearPolicy) Deterministic() bool {
	return p.noiseScale > 0
}

// Selector is the epsilon-greedy action source: with probability epsilon
// it samples the space uniformly, otherwise it queries the policy. A
// deterministic policy bypasses epsilon entirely. Either way the action is
// clamped to the space.
type Selector struct {
	Policy  Policy
	Space   Space
	Epsilon float64
	Rand    *rand.Rand
}

func (s *Selector) Select(obs *etensor.Float64) ([]float64, error) {
	if !s.Policy.Deterministic() && s.Rand.Float64() < s.Epsilon {
		return s.Space.Sample(s.Rand), nil
	}
	a, err := s.Policy.Action(obs)
	if err != nil {
		return nil, err
	}
	return s.Space.Clamp(a), nil
}
