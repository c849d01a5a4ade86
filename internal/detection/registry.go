package detection

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// New builds the Detector for p. The inference endpoint is endpoint when
// set; otherwise the first weights location is used when it is an http(s)
// URL (a model server address). Local weight files cannot be executed in
// process and yield ErrModelLoad.
func New(ctx context.Context, p Params, endpoint string, opts RemoteOptions) (*Adapter, error) {
	if len(p.Weights) == 0 {
		return nil, fmt.Errorf("%w: no weights given", ErrModelLoad)
	}

	if endpoint == "" && isHTTPURL(p.Weights[0]) {
		endpoint = p.Weights[0]
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: %s: no inference endpoint configured; serve the weights behind an inference service and pass its URL",
			ErrModelLoad, strings.Join(p.Weights, ","))
	}

	backend, err := NewRemoteBackend(ctx, endpoint, p, opts)
	if err != nil {
		return nil, err
	}
	adapter, err := NewAdapter(p, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return adapter, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
