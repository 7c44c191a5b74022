// Package sim provides the coverage-control engine for a fleet of
// quadcopters.
//
// # Reading Guide
//
// Start with these files to understand the control loop:
//   - entity.go: Agent, PointOfInterest, AreaOfInterest and the Source view
//   - target.go: weighted-centroid target assignment per Voronoi cell
//   - motion.go: agent motion, reflecting point motion, attrition
//   - simulator.go: the step driver that runs one tick after another
//
// # Architecture
//
// Each tick runs, in order: point motion, attrition, partition rebuild,
// target assignment, agent motion. Repeating partition-and-recentroid over
// many ticks is a weighted Lloyd iteration that drives agents toward a
// locally optimal coverage of the weighted sources.
//
// Implementations of the surrounding concerns live in sub-packages:
//   - sim/voronoi/: Voronoi partition of the rectangular domain
//   - sim/scenario/: YAML scenario loading, validation and generation
//   - sim/trace/: per-tick and diagnostic records
//   - sim/store/: SQLite persistence of tick snapshots
//   - sim/export/: GeoJSON export for renderers
//   - sim/telemetry/: Prometheus collectors
//
// All randomness flows through PartitionedRNG, so a seed and a scenario fully
// determine every tick.
package sim
