package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Report
// caching goes through this so Redis and the in-memory fallback are
// interchangeable.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Fallback reads through primary first and falls back to secondary
// when the primary errors (e.g. Redis down). Writes go to both,
// best-effort on the primary.
type Fallback struct {
	Primary   BytesCache
	Secondary BytesCache
}

func NewFallback(primary, secondary BytesCache) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

func (f *Fallback) GetBytes(key string) ([]byte, bool, error) {
	if f.Primary != nil {
		if b, ok, err := f.Primary.GetBytes(key); err == nil {
			return b, ok, nil
		}
	}
	if f.Secondary != nil {
		return f.Secondary.GetBytes(key)
	}
	return nil, false, nil
}

func (f *Fallback) SetBytes(key string, value []byte, ttl time.Duration) error {
	if f.Primary != nil {
		_ = f.Primary.SetBytes(key, value, ttl)
	}
	if f.Secondary != nil {
		return f.Secondary.SetBytes(key, value, ttl)
	}
	return nil
}
