// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package metric

import (
	"math/rand"

	"github.com/antimetal/metricscore/atom"
	"github.com/antimetal/metricscore/dimension"
)

// SamplingConfig configures the two orthogonal sampling mechanisms of
// spec.md §4.6: probabilistic retention and dimensional sharding.
//
// No library in the retrieval pack provides a seedable PRNG suited to
// this — math/rand is the direct standard-library primitive for exactly
// this need and is used here for that reason (see DESIGN.md).
type SamplingConfig struct {
	// Percentage is sampling_percentage in [1,100]; 0 disables
	// probabilistic sampling.
	Percentage int

	// ShardField is sampled_what_field; nil disables dimensional
	// sampling.
	ShardField []atom.FieldPath
	// ShardCount is shard_count; 0 disables dimensional sampling.
	ShardCount int
}

// Sampler evaluates a SamplingConfig against events. It is stateful
// only in its RNG stream, which is seedable for deterministic tests
// (spec.md §9 "implementers must document the RNG used and allow
// seeding for tests").
type Sampler struct {
	cfg         SamplingConfig
	rng         *rand.Rand
	shardOffset int32
}

// NewSampler builds a sampler. shardOffset is the process-wide shard
// offset (spec.md §6); seed controls the probabilistic RNG stream.
func NewSampler(cfg SamplingConfig, shardOffset int32, seed int64) *Sampler {
	return &Sampler{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		shardOffset: shardOffset,
	}
}

// Passes reports whether event survives both sampling mechanisms. Both
// gate events before they reach bucket update logic (spec.md §4.6).
func (s *Sampler) Passes(event *atom.Event) (bool, error) {
	if s.cfg.Percentage > 0 && s.cfg.Percentage < 100 {
		if s.rng.Intn(100) >= s.cfg.Percentage {
			return false, nil
		}
	}
	if s.cfg.ShardCount > 0 {
		key, err := dimension.Build(event, s.cfg.ShardField)
		if err != nil {
			return false, err
		}
		sum := key.Hash64() + uint64(uint32(s.shardOffset))
		if sum%uint64(s.cfg.ShardCount) != 0 {
			return false, nil
		}
	}
	return true, nil
}
