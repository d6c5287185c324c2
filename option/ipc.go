package option

import (
	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/json"
)

type _IPCOptions struct {
	// PipeFD names the inherited, already-open writable descriptor events
	// are written to. Zero or absent disables emission entirely.
	PipeFD int `json:"ipc_pipe_fd,omitempty"`
}

type IPCOptions _IPCOptions

func (o *IPCOptions) UnmarshalJSON(content []byte) error {
	err := json.UnmarshalDisallowUnknownFields(content, (*_IPCOptions)(o))
	if err != nil {
		return err
	}
	if o.PipeFD < 0 {
		return E.New("invalid ipc_pipe_fd: ", o.PipeFD)
	}
	return nil
}

// Disabled reports whether no destination descriptor is configured.
func (o IPCOptions) Disabled() bool {
	return o.PipeFD <= 0
}
