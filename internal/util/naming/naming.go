package naming

import "fmt"

// LibraryDescription is the description given to content libraries created by corefleet.
const LibraryDescription = "Core OS Library"

// VM returns the name of the index-th (zero-based) instance of a role.
// Indices of 99 and above grow past the two-digit padding.
func VM(environment, role string, index int) string {
	return fmt.Sprintf("%s-%s-%02d", environment, role, index+1)
}

// Template returns the library item name holding the OVA for a release channel.
func Template(channel string) string {
	return fmt.Sprintf("coreos-%s", channel)
}

// TemplateDescription returns the library item description for a release channel.
func TemplateDescription(channel string) string {
	return fmt.Sprintf("Core OS %s channel", channel)
}
