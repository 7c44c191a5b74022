package sim

import (
	"math"
	"math/rand"
	"testing"
)

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemAttrition).Float64()
		v2 := rng2.ForSubsystem(SubsystemAttrition).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// BDD: Drawing jitter from the motion subsystem doesn't shift attrition draws
	rngA := NewPartitionedRNG(NewSimulationKey(7))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemMotion).NormFloat64()
	}
	got := rngA.ForSubsystem(SubsystemAttrition).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(7))
	want := fresh.ForSubsystem(SubsystemAttrition).Float64()

	if got != want {
		t.Errorf("attrition first value = %v, want %v (isolation broken)", got, want)
	}
}

func TestPartitionedRNG_ScenarioUsesMasterSeed(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(99))
	scenario := rng.ForSubsystem(SubsystemScenario)
	direct := rand.New(rand.NewSource(99))

	for i := 0; i < 10; i++ {
		if got, want := scenario.Float64(), direct.Float64(); got != want {
			t.Errorf("Value %d: scenario RNG = %v, direct RNG = %v", i, got, want)
		}
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if rng.ForSubsystem(SubsystemMotion) != rng.ForSubsystem(SubsystemMotion) {
		t.Error("ForSubsystem returned different instances for same name")
	}
	if len(rng.subsystems) != 1 {
		t.Errorf("have %d subsystems, want 1", len(rng.subsystems))
	}
}

func TestPartitionedRNG_ExtremeSeeds(t *testing.T) {
	for _, seed := range []int64{0, -1, math.MaxInt64, math.MinInt64} {
		rng := NewPartitionedRNG(NewSimulationKey(seed))
		if rng.Key() != SimulationKey(seed) {
			t.Errorf("Key() = %v, want %v", rng.Key(), seed)
		}
		v := rng.ForSubsystem(SubsystemAttrition).Float64()
		if v < 0 || v >= 1 {
			t.Errorf("seed %d: Float64() returned %v, want [0, 1)", seed, v)
		}
	}
}

func TestFnv1a64_NoCollisionBetweenSubsystems(t *testing.T) {
	hashes := make(map[int64]string)
	for _, name := range []string{SubsystemScenario, SubsystemAttrition, SubsystemMotion, ""} {
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}
