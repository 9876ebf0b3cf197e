// Package library bootstraps the CoreOS content library.
//
// A [Manager] owns one content library and tracks, per release channel,
// whether the channel template is present. Missing templates are downloaded
// as an OVA, unpacked, and pushed into the library as an OVF item named
// coreos-<channel>. Each channel moves from unknown to validated once its
// presence has been checked; deployment requires the template to be present.
package library
