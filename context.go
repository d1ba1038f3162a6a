package authsession

import "context"

type networkContextKey struct{}

// WithNetwork attaches a network identifier to ctx. Multi-network bots use
// it to scope confirmation throttle counters and audit events; the same
// mask on two networks counts independently. When absent, the default
// network "0" is used.
func WithNetwork(ctx context.Context, network string) context.Context {
	return context.WithValue(ctx, networkContextKey{}, network)
}

func networkFromContext(ctx context.Context) string {
	if ctx == nil {
		return "0"
	}

	network, _ := ctx.Value(networkContextKey{}).(string)
	if network == "" {
		return "0"
	}
	return network
}
