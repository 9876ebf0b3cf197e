// Package vsphere adapts govmomi to the narrow set of vCenter operations
// corefleet needs.
//
// # Architecture
//
//   - platform.go: the Platform interface and the value types it exchanges
//   - session.go: login and logout against the SOAP and REST endpoints
//   - library.go: content library lookup, creation and OVF item upload
//   - lookup.go: name-based object lookup with an optional bounded cache
//   - vm.go: deployment, extra config, power and guest network operations
//   - errors.go: NotFoundError and PlatformTaskError
//
// A [Session] is created by [Connect] and passed explicitly to every
// component that talks to vCenter. Objects are resolved by listing every
// object of a kind through a container view and matching the name exactly.
package vsphere
