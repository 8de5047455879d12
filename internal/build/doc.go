// Package build runs the compilation pipeline: scan the source tree, classify
// and alias every resource, render it when the mode is frozen, and collect
// the results in a route table.
//
// All entry points (build, serve, routes, check) go through Service.Run. Any
// error aborts the build; nothing is recovered mid-pipeline.
package build
