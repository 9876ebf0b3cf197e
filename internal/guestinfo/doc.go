// Package guestinfo builds the ordered guestinfo.* settings CoreOS reads from
// VMware extra config on boot.
//
// A [Config] holds one VM's hostname, its single network interface, DNS
// servers and the encoded cloud-config payload. [Config.Settings] renders
// them in the order the guest agent expects:
//
//	guestinfo.hostname
//	guestinfo.interface.0.{name,DHCP,role,ip.0.address,route.0.destination,route.0.gateway}
//	guestinfo.dns.server.N
//	guestinfo.coreos.config.data.encoding
//	guestinfo.coreos.config.data
package guestinfo
