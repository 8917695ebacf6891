package services

// Observer receives events worth counting. metrics.Recorder implements it.
type Observer interface {
	ValidationFailed(kind string)
	DecodeFailed()
	CacheHit()
	CacheMiss()
}

type nopObserver struct{}

func (nopObserver) ValidationFailed(string) {}
func (nopObserver) DecodeFailed()           {}
func (nopObserver) CacheHit()               {}
func (nopObserver) CacheMiss()              {}
