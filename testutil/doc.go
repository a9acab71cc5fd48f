// Package testutil provides testing utilities for epsel.
//
// This package is intended for use in tests only. It provides seeded
// random generation of atomic configurations, deterministic fake
// potentials and backends, and model artifact fixtures.
//
// # Synthetic Configurations
//
//	rng := testutil.NewRNG(seed)
//	cfg := rng.Configuration(0, 8)            // 8 Si/O atoms, index 0
//	cfgs := rng.Trajectory(10, 8)             // indices 0..9
//
// # Fake Potentials
//
//	pot := testutil.ConstantPotential(tm, 1.5)          // every force component 1.5
//	pot := testutil.ForceFunc(tm, func(model string, cfg *structure.Configuration) []float32 { ... })
package testutil
