package driver

import (
	"fmt"
	"sort"
	"sync"
)

// The browser-automation implementation ships as a separate package and
// registers itself here at init time, database/sql style. This repo only
// defines the collaborator surface.

var (
	driversMu sync.RWMutex
	drivers   = map[string]func() (Authenticator, error){}
)

func Register(name string, open func() (Authenticator, error)) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if open == nil {
		panic("driver: Register with nil opener")
	}
	if _, dup := drivers[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	drivers[name] = open
}

func Open(name string) (Authenticator, error) {
	driversMu.RLock()
	open, ok := drivers[name]
	var known []string
	if !ok {
		for n := range drivers {
			known = append(known, n)
		}
	}
	driversMu.RUnlock()
	if !ok {
		sort.Strings(known)
		return nil, fmt.Errorf("driver %q not linked (known: %v)", name, known)
	}
	return open()
}
