package showcase

import "errors"

// ErrTransport marks a failure talking to the source host. It aborts the
// current project only.
var ErrTransport = errors.New("source transport failure")
