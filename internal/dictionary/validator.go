package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/anchal00/gameroom/internal/logger"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Validator checks word existence through bounded caches, the curated list
// and finally the remote lookup. Remote failures fall back to the curated
// list and are never cached, so the word is retried on the next call.
type Validator struct {
	valid   *expirable.LRU[string, struct{}]
	invalid *expirable.LRU[string, struct{}]
	static  *StaticList
	remote  Lookup
	timeout time.Duration
	Logger  logger.Logger
}

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Timeout   time.Duration
}

func NewValidator(static *StaticList, remote Lookup, opts Options, log logger.Logger) *Validator {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 4096
	}
	return &Validator{
		valid:   expirable.NewLRU[string, struct{}](opts.CacheSize, nil, opts.CacheTTL),
		invalid: expirable.NewLRU[string, struct{}](opts.CacheSize, nil, opts.CacheTTL),
		static:  static,
		remote:  remote,
		timeout: opts.Timeout,
		Logger:  log,
	}
}

func (v *Validator) IsValid(ctx context.Context, word string) bool {
	word = Normalize(word)
	if word == "" {
		return false
	}
	if _, ok := v.valid.Get(word); ok {
		return true
	}
	if _, ok := v.invalid.Get(word); ok {
		return false
	}
	if v.static.Contains(word) {
		v.valid.Add(word, struct{}{})
		return true
	}
	if v.remote == nil {
		return false
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	exists, err := v.remote.Exists(ctx, word)
	if err != nil {
		v.Logger.Error(fmt.Sprintf("Dictionary lookup for %q failed, using curated list", word), err)
		return v.static.Contains(word)
	}
	if exists {
		v.valid.Add(word, struct{}{})
	} else {
		v.invalid.Add(word, struct{}{})
	}
	return exists
}

func (v *Validator) Static() *StaticList {
	return v.static
}
