package application

import "errors"

// ErrMirrorNotConfigured is returned by MirrorRecords when the service has no
// mirror store.
var ErrMirrorNotConfigured = errors.New("record mirror not configured")
