// Package buildsys implements a small build pipeline for native Node.js addons. It runs the native
// release build and the platform-specific addon rebuild through mvdan.cc/sh and publishes the
// resulting binary under a templated file name.
// The pipeline is either the built-in default or a Starlark build script.
package buildsys
