package encoder

import "sync"

// singleton caches a process-wide Encoder handle, per §9's "global
// singleton convenience" design note. The core packages never touch
// this; it exists only for callers (the CLI, the inspection service)
// that would otherwise have to thread an Encoder handle through every
// call site for a resource that is, in practice, opened once per
// process.
var (
	singletonMu  sync.Mutex
	singletonEnc Encoder
)

// SetDefault installs the process-wide Encoder handle. Call once at
// startup, after constructing the real hardware driver.
func SetDefault(enc Encoder) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	singletonEnc = enc
}

// Default returns the process-wide Encoder handle, or nil if
// SetDefault was never called.
func Default() Encoder {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singletonEnc
}

// ReleaseDefault clears the process-wide handle. Callers that own the
// underlying hardware session are responsible for closing it first;
// this only drops this package's reference.
func ReleaseDefault() {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	singletonEnc = nil
}
