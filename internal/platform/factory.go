package platform

import (
	"context"

	"github.com/aretw0/itt/pkg/core"
)

// Instance is an opened store with the provider behind it.
type Instance struct {
	Store *core.Store
	KV    core.KV
	close func() error
}

// Close releases the provider's connections.
func (i *Instance) Close() error {
	return i.close()
}

// New opens the provider and builds the store on top of it.
//
//	inst, err := platform.New(ctx, "./data", platform.WithVersioning(true))
func New(ctx context.Context, uri string, opts ...Option) (*Instance, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	kv, closeFn, err := open(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	storeOpts := o.storeOpts
	if o.logger != nil {
		storeOpts = append([]core.Option{core.WithLogger(o.logger)}, storeOpts...)
	}

	return &Instance{
		Store: core.NewStore(kv, storeOpts...),
		KV:    kv,
		close: closeFn,
	}, nil
}
