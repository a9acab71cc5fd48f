// Package epsel selects the most informative configurations from a
// molecular dynamics trajectory for re-labeling with ground-truth
// calculations, using the disagreement of a committee of independently
// trained interatomic potentials (query-by-committee active learning).
//
// # Quick Start
//
//	ens, _ := potential.NewEnsemble("water", members...)
//	sampler := epsel.New(epsel.StaticEnsemble(ens), 0.05, 0.35, 300)
//
//	src, _ := structure.OpenFile("md.extxyz.gz")
//	defer src.Close()
//
//	result, diags, err := sampler.Run(ctx, src)
//	if err != nil { ... }
//	_ = epsel.WriteSelection("new_configs.extxyz", result)
//
// For each streamed frame the committee predicts per-atom forces; the
// maximum per-atom RMS deviation across members (eps_t) quantifies
// epistemic uncertainty. Frames inside the [lo, hi] band are uncertain but
// still physically trustworthy; the band is capped to a bounded, diverse
// subset by a deterministic strategy.
//
// # Registry
//
// Named ensembles persist in a registry backed by the local filesystem,
// object storage or DynamoDB:
//
//	reg := registry.New(registry.NewBlobStore(blobstore.NewLocalStore(dir)))
//	reg.Set(ctx, "water", "00/model.ept", "01/model.ept")
//	sampler := epsel.New(epsel.RegistryEnsemble(reg, "water", backend), 0.05, 0.35, 300)
//
// # Streaming
//
// Trajectories are consumed one frame at a time and may contain millions of
// frames; peak memory is bounded by the in-band candidate set, not the
// stream. Per-frame evaluation failures are recorded and skipped, never
// aborting the run. Workers evaluate frames concurrently, yet results are
// explicitly ordered and reproducible regardless of parallelism.
package epsel
