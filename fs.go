package xrefmap

import "github.com/spf13/afero"

// DefaultFs is the default filesystem used by xrefmap for all local reads.
// It defaults to the OS filesystem but can be overridden for testing.
//
// Example usage for testing:
//
//	func TestAcquire(t *testing.T) {
//	    memFs := afero.NewMemMapFs()
//	    afero.WriteFile(memFs, "/maps/x.yml", []byte("entries: []"), 0644)
//	    xrefmap.SetDefaultFs(memFs)
//	    defer xrefmap.ResetDefaultFs()
//	    // ... test code ...
//	}
var DefaultFs afero.Fs = afero.NewOsFs()

// SetDefaultFs sets the global default filesystem.
//
// WARNING: This modifies global state and is NOT thread-safe.
// Do not use with t.Parallel() tests. For concurrent tests,
// use WithFilesystem() on individual builders instead.
func SetDefaultFs(fs afero.Fs) {
	DefaultFs = fs
}

// ResetDefaultFs resets the global filesystem to the OS filesystem.
// Call this in test cleanup to restore default behavior.
func ResetDefaultFs() {
	DefaultFs = afero.NewOsFs()
}
