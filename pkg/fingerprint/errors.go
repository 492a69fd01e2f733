package fingerprint

import "errors"

// ErrDeviceIdentityUnavailable indicates that no strong host component could
// be read.
var ErrDeviceIdentityUnavailable = errors.New("fingerprint.device_identity_unavailable")
