package constant

// IPCTag prefixes every line written to the pipe. The consumer splits on the
// first ':' and discards lines carrying any other tag.
const IPCTag = "cyanoacrylate"

const (
	StatusRunning            = "running"
	StatusDone               = "done"
	StatusClientConnected    = "clientConnected"
	StatusClientDisconnected = "clientDisconnected"
	StatusTLSFailed          = "tlsFailed"
	StatusTLSEstablished     = "tlsEstablished"
	StatusProxyChanged       = "proxyChanged"
)
