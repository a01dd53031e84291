package hwaccel

import "github.com/hashicorp/go-hclog"

// Negotiation decisions are logged, never returned as fatal errors; a silent
// null logger is the default so library users opt in explicitly.
var logger hclog.Logger = hclog.NewNullLogger()

// SetLogger routes negotiation diagnostics (candidate selection, device
// creation, rejections, pool failures) to the given logger.
func SetLogger(l hclog.Logger) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	logger = l
}
