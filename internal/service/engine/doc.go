// Package engine runs the proximity-alert process.
//
// Run loads the settings, builds the sensor source, the controller with its
// actuator and presenters, and serves the status API. Every component runs in
// one errgroup, so the first failure or a canceled context stops them all and
// leaves the alert silenced.
package engine
