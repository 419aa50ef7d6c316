// Package persist moves a board between the editor and its backing stores:
// the shared data service, a local key-value fallback and project files.
//
// Store failures never reach the caller as errors on the load path; they
// degrade to the next source and surface as a warning instead.
package persist
