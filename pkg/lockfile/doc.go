// Package lockfile decodes npm package-lock.json files and walks their
// resolved tree into a [depgraph.Graph].
//
// # Input
//
// Only the "packages" section of the lockfile is read. Its keys are
// installation paths: "" is the project root and every other key has the
// form "node_modules/<name>" (possibly nested). Each entry may carry a
// "version" string and a "dependencies" object whose keys name the
// packages it needs; the version ranges are ignored.
//
// Decoding keeps the insertion order of every dependencies object. The walk
// expands children in that order, which makes the first-seen depth of each
// package, and therefore its risk score, reproducible for a given file.
//
// # Walk
//
// [Walk] performs a depth-first traversal from the root using an explicit
// stack. A dependency named "x" always resolves to the entry
// "node_modules/x", regardless of where the parent is installed; nested
// installations are not consulted. Names with no matching entry are
// skipped. A package's own dependencies are expanded only on its first
// visit, but every visit records an edge on the parent.
//
// # Errors
//
// Malformed input fails with an [errors.ErrCodeInvalidLockfile] error and
// no graph is returned.
package lockfile
