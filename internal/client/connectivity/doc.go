// Package connectivity decides whether the remote service is reachable.
//
// Probe performs one reachability check. Watcher runs it periodically,
// keeps State current and tells registered listeners about every
// online/offline transition. State is written only by the Watcher; everything
// else reads it through Online.
package connectivity
