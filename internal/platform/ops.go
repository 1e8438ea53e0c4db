package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/itt/pkg/adapters/fs"
	"github.com/aretw0/itt/pkg/adapters/memory"
	"github.com/aretw0/itt/pkg/adapters/mongo"
	"github.com/aretw0/itt/pkg/adapters/sql"
	"github.com/aretw0/itt/pkg/core"
)

// Open builds and initializes the provider selected by the options.
// The uri is adapter specific: a directory for fs, a connection string for
// mongo and postgres, ignored for memory. The returned close function releases
// connections and is never nil.
func Open(ctx context.Context, uri string, opts ...Option) (core.KV, func() error, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return open(ctx, uri, o)
}

func open(ctx context.Context, uri string, o *options) (core.KV, func() error, error) {
	noop := func() error { return nil }

	if o.kv != nil {
		return o.kv, noop, nil
	}

	var (
		kv      core.KV
		closeFn = noop
	)

	switch o.adapter {
	case AdapterFS:
		kv = openFS(uri, o)
	case AdapterMemory:
		kv = memory.New()
	case AdapterMongo:
		if uri == "" {
			return nil, noop, fmt.Errorf("mongo adapter requires a connection uri")
		}
		client, err := mongo.Connect(ctx, uri)
		if err != nil {
			return nil, noop, err
		}
		kv = mongo.NewKV(client.Database(o.mongoDB), mongo.DefaultCollection, o.logger)
		closeFn = func() error { return client.Disconnect(context.Background()) }
	case AdapterPostgres:
		if uri == "" {
			return nil, noop, fmt.Errorf("postgres adapter requires a dsn")
		}
		db, err := sql.OpenPostgres(uri)
		if err != nil {
			return nil, noop, err
		}
		kv = sql.NewKV(db, o.logger)
		closeFn = func() error {
			raw, err := db.DB()
			if err != nil {
				return err
			}
			return raw.Close()
		}
	default:
		return nil, noop, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if initializer, ok := kv.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			_ = closeFn()
			return nil, noop, fmt.Errorf("failed to initialize %s adapter: %w", o.adapter, err)
		}
	}

	return kv, closeFn, nil
}

// openFS resolves the directory with the dev safety rules and builds the file adapter.
func openFS(path string, o *options) *fs.KV {
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolvePath(path, useTemp)

	if o.logger != nil {
		switch {
		case useTemp:
			o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolvedPath)
		case IsDevRun() && o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
		case IsDevRun():
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
		}
	}

	return fs.NewKV(fs.Config{
		Path:         resolvedPath,
		MustExist:    o.mustExist || (!o.autoInit && !useTemp),
		ReadOnly:     o.readOnly,
		Versioning:   o.versioning,
		AutoInit:     o.autoInit,
		SystemDir:    o.systemDir,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
}
