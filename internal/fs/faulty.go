package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// Op identifies a FileSystem operation for fault injection.
type Op uint8

const (
	OpRead Op = 1 << iota
	OpWrite
	OpRemove
	OpStat
	OpMkdir
	OpReadDir

	OpAll = OpRead | OpWrite | OpRemove | OpStat | OpMkdir | OpReadDir
)

// ErrInjected is the default error returned by a triggered fault.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	// Ops selects the operations that fail. Zero means OpAll.
	Ops Op
	// FailAfterBytes makes WriteFile persist only the first N bytes and then
	// fail, leaving a torn file behind. Zero disables it.
	FailAfterBytes int
	// Err is returned by the failing operation. Defaults to ErrInjected.
	Err error
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS    FileSystem
	mu    sync.Mutex
	rules map[string]Fault // Path suffix -> Fault
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
	}
}

// AddRule adds a fault injection rule for paths ending in suffix.
func (f *FaultyFS) AddRule(suffix string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fault.Ops == 0 {
		fault.Ops = OpAll
	}
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.rules[suffix] = fault
}

// ClearRules removes all fault injection rules.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = make(map[string]Fault)
}

func (f *FaultyFS) match(name string, op Op) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	best, bestLen, found := Fault{}, -1, false
	for suffix, rule := range f.rules {
		if rule.Ops&op == 0 || !strings.HasSuffix(name, suffix) {
			continue
		}
		// Longest suffix wins.
		if len(suffix) > bestLen {
			best, bestLen, found = rule, len(suffix), true
		}
	}
	return best, found
}

func (f *FaultyFS) ReadFile(name string) ([]byte, error) {
	if fault, ok := f.match(name, OpRead); ok {
		return nil, fault.Err
	}
	return f.FS.ReadFile(name)
}

func (f *FaultyFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	fault, ok := f.match(name, OpWrite)
	if !ok {
		return f.FS.WriteFile(name, data, perm)
	}
	if fault.FailAfterBytes > 0 && fault.FailAfterBytes < len(data) {
		if err := f.FS.WriteFile(name, data[:fault.FailAfterBytes], perm); err != nil {
			return err
		}
	}
	return fault.Err
}

func (f *FaultyFS) Remove(name string) error {
	if fault, ok := f.match(name, OpRemove); ok {
		return fault.Err
	}
	return f.FS.Remove(name)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	if fault, ok := f.match(name, OpStat); ok {
		return nil, fault.Err
	}
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	if fault, ok := f.match(path, OpMkdir); ok {
		return fault.Err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	if fault, ok := f.match(name, OpReadDir); ok {
		return nil, fault.Err
	}
	return f.FS.ReadDir(name)
}
