// Package ssh runs validation commands on provisioned virtual machines.
//
// Every [Client.Run] opens its own connection, runs one command with stdout
// and stderr captured separately, and tears the connection down. Password
// authentication is the default; a private key may be supplied instead.
package ssh
