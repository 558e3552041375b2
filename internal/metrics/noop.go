package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncEntityCreated(resource string) {}
func (n *NoopRecorder) IncEntityUpdated(resource string) {}
func (n *NoopRecorder) IncEntityDeleted(resource string) {}
func (n *NoopRecorder) IncEntityFailure(resource, kind string) {}
func (n *NoopRecorder) IncAuthFailure(reason string) {}
func (n *NoopRecorder) IncPrincipalCacheHit() {}
func (n *NoopRecorder) IncPrincipalCacheMiss() {}
func (n *NoopRecorder) IncRateLimited() {}
