// Package depth extracts distances from depth frames.
//
// Sample reads a single clamped pixel from a row-major float32 buffer, the
// Throttler bounds the processing rate by sensor timestamp, and the Sampler
// combines both to turn accepted frames into DistanceSamples taken at the
// frame centre.
package depth
