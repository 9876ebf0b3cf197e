// Package environment drives the lifecycle of an environment's virtual
// machines.
//
// An environment is a list of roles, each with a machine count. Machines are
// named <env>-<role>-NN and visited strictly in order: roles as declared,
// then index. Every visit is one or more tracker steps, and the first error
// aborts the remaining sequence.
//
// Architecture:
//
//	Orchestrator
//	├── Plan        guestinfo per machine, no platform calls
//	├── Deploy      check template, deploy, reconfigure, power on
//	├── Destroy     hard power off, destroy
//	├── PowerOn     power on
//	├── PowerOff    guest shutdown
//	├── Reconfigure reapply guestinfo, guest reboot
//	└── Validate    resolve subnet address, run checks over SSH
package environment
