package option

import (
	"github.com/sagernet/sing/common/json"
)

type _LogOptions struct {
	Disabled     bool   `json:"disabled,omitempty"`
	Level        string `json:"level,omitempty"`
	Timestamp    bool   `json:"timestamp,omitempty"`
	DisableColor bool   `json:"-"`
}

type LogOptions _LogOptions

func (o *LogOptions) UnmarshalJSON(content []byte) error {
	return json.UnmarshalDisallowUnknownFields(content, (*_LogOptions)(o))
}
