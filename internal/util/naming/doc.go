// Package naming provides the deterministic names used for vSphere objects.
//
// Virtual machines follow {environment}-{role}-{NN}, where NN is the one-based
// instance number zero-padded to two digits. Content library items follow
// coreos-{channel}.
package naming
