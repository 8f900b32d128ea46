// Package app runs the broadcast pipeline.
//
// Three tasks run together: the producer pulling frames into the hub, the
// HTTP listener, and the shutdown coordinator waiting for a signal. They are
// joined with an errgroup; the first task error fails the whole run.
package app
