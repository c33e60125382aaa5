// Package proximity contains the core domain types of the proximity-alert engine.
//
// It defines the borrowed DepthFrame delivered by a sensor, the immutable
// DistanceSample extracted from it, the CadenceDecision derived from a
// distance, and the AlertState owned by the scheduler.
package proximity
