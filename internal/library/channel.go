package library

import (
	"errors"
	"fmt"
	"strings"
)

// Release channels with a template in the library.
const (
	ChannelStable = "stable"
	ChannelBeta   = "beta"
	ChannelAlpha  = "alpha"
)

// Channels lists every known release channel.
var Channels = []string{ChannelStable, ChannelBeta, ChannelAlpha}

// DefaultURLTemplate is the OVA download location. {channel} is replaced with
// the release channel.
const DefaultURLTemplate = "https://{channel}.release.core-os.net/amd64-usr/current/coreos_production_vmware_ova.ova"

const ovaFilename = "coreos_production_vmware_ova.ova"

var (
	ErrUnknownChannel      = errors.New("invalid channel")
	ErrLibraryNotReady     = errors.New("content library is not configured")
	ErrChannelNotValidated = errors.New("channel template has not been validated")
	ErrTemplateUnavailable = errors.New("channel template is not available for deployment")
)

// Availability is the tri-state presence of a channel template.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAbsent
	AvailabilityPresent
)

func (a Availability) String() string {
	switch a {
	case AvailabilityAbsent:
		return "absent"
	case AvailabilityPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Template is the tracked state of one channel.
type Template struct {
	Channel   string
	Available Availability
	Validated bool
}

// Status is the outcome of EnsureChannelItem.
type Status int

const (
	// StatusReady means the template was uploaded by this call.
	StatusReady Status = iota
	// StatusSkipped means the template was already present.
	StatusSkipped
	// StatusUnavailable means the download, unpack or upload failed.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusSkipped:
		return "skipped"
	default:
		return "unavailable"
	}
}

// BootstrapResult reports what EnsureChannelItem did for a channel.
type BootstrapResult struct {
	Channel string
	Status  Status
	Err     error
}

// IsKnownChannel reports whether channel is one of Channels.
func IsKnownChannel(channel string) bool {
	for _, c := range Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// DownloadURL expands template for channel.
func DownloadURL(template, channel string) string {
	return strings.ReplaceAll(template, "{channel}", channel)
}

func unknownChannel(channel string) error {
	return fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownChannel, channel, strings.Join(Channels, ", "))
}
