package config

import (
	"fmt"
)

type CacheKeyStruct struct {
	prefix string
}

func NewCacheKeyStruct(prefix string) *CacheKeyStruct {
	return &CacheKeyStruct{prefix: prefix}
}

// SessionKey returns the cache key holding the session behind a token.
func (r *CacheKeyStruct) SessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, token)
}

var CacheKey = NewCacheKeyStruct("quiz")
