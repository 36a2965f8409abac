// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Import fans extraction and embedding out over a bounded errgroup while
// keeping id assignment sequential; search runs on a single connection per
// call.
package services
