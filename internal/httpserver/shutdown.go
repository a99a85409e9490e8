package httpserver

import "time"

// ShutdownTimeout controls how long to wait for graceful shutdowns. In-flight
// engine runs are capped by their own timeouts, so this only has to cover
// draining responses.
var ShutdownTimeout = 15 * time.Second
