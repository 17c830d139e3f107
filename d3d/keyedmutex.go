//go:build windows

package d3d

// AcquireKeyedMutex attempts to acquire the keyed mutex at key within
// timeoutMs. It reports false when the mutex is held on a different key:
// AcquireSync returns WAIT_TIMEOUT then, which is a success HRESULT, so only
// an exact S_OK counts as acquired.
func AcquireKeyedMutex(mutex uintptr, key uint64, timeoutMs uint32) (bool, error) {
	hr, err := comCall(mutex, dxgiKeyedMutexAcquireSync, uintptr(key), uintptr(timeoutMs))
	if err != nil {
		return false, err
	}
	return hr == 0, nil
}

// ReleaseKeyedMutex releases the keyed mutex, handing it off at key.
func ReleaseKeyedMutex(mutex uintptr, key uint64) error {
	_, err := comCall(mutex, dxgiKeyedMutexReleaseSync, uintptr(key))
	return err
}
