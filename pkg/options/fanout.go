package options

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Source pairs a field key with the Loader that resolves its choices.
type Source struct {
	Key    string
	Loader Loader
}

// Fanout runs every loader concurrently and calls commit once per source
// with the resolved options. There is no ordering guarantee between fields.
// A failed loader is an isolated failure domain: the error is logged, commit
// receives an empty list for that field, and sibling loaders are unaffected.
// Fanout returns once every loader has settled.
//
// The commit callback runs on the loader's goroutine; callers guard their
// own state (the form container checks its open generation there so stale
// results are dropped instead of applied).
func Fanout(ctx context.Context, sources []Source, log zerolog.Logger, commit func(key string, opts []Option)) {
	if len(sources) == 0 || commit == nil {
		return
	}

	var wg sync.WaitGroup
	for _, src := range sources {
		if src.Key == "" || src.Loader == nil {
			continue
		}
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			opts, err := src.Loader.Load(ctx)
			if err != nil {
				log.Error().Err(err).Str("field", src.Key).Msg("options: load failed")
				commit(src.Key, nil)
				return
			}
			commit(src.Key, opts)
		}(src)
	}
	wg.Wait()
}
