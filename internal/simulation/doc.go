// Package simulation runs a population of client agents over a number of
// hourly steps and streams the resulting transaction records to a sink.
//
// A run is single-threaded and reproducible: one seeded random source feeds
// every draw, clients act in creation order and each step's records reach
// the sink only at the step boundary. Two runs with the same seed, profiles
// and scenario produce identical records.
//
// Usage:
//
//	ps, _ := profiles.NewStore(bundle)
//	r := simulation.NewRunner(ps, store.NewCSVSink("output"),
//	    simulation.WithLogger(logger))
//	result, err := r.Run(ctx, simulation.Scenario{
//	    Name:  "march",
//	    Seed:  42,
//	    Steps: 720,
//	})
//
// The helpers in this package (CollectSink and the Assert functions) exist so
// tests in other packages can check ledger properties of a finished run.
package simulation
