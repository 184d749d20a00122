package ethf

import (
	"net/http"

	"github.com/Pavankumar07s/ETHF/erc20"
	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/metrics"
)

type Option func(*ETHF)

func WithLogger(l logger.Logger) Option {
	return func(e *ETHF) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(e *ETHF) {
		if r != nil {
			e.met = r
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(e *ETHF) {
		e.httpClient = c
	}
}

// WithCallerFactory swaps the RPC-backed contract reader, mostly for tests.
func WithCallerFactory(f erc20.CallerFactory) Option {
	return func(e *ETHF) {
		e.callers = f
	}
}
