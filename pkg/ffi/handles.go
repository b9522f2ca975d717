package main

// #include "anticrawl.h"
import "C"
import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// handleManager manages identity provider handles with thread safety.
var handleManager = &providerHandles{
	providers: make(map[C.int]*anticrawl.Provider),
}

type providerHandles struct {
	mu        sync.RWMutex
	providers map[C.int]*anticrawl.Provider
	nextID    C.int
}

func (h *providerHandles) add(p *anticrawl.Provider) C.int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.providers[h.nextID] = p
	return h.nextID
}

func (h *providerHandles) get(id C.int) (*anticrawl.Provider, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.providers[id]
	return p, ok
}

func (h *providerHandles) remove(id C.int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.providers, id)
}

// parseSettings decodes a settings JSON object over the documented
// defaults. A nil or empty input means defaults only.
func parseSettings(settingsJSON *C.char) (anticrawl.Settings, error) {
	s := anticrawl.DefaultSettings()
	if settingsJSON == nil {
		return s, nil
	}
	raw := C.GoString(settingsJSON)
	if raw == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("invalid settings JSON: %w", err)
	}
	return s, nil
}

// === Identity Provider ===

// anticrawl_open builds a provider from a settings JSON object (keys per
// the Settings type: anti_crawl_enabled, proxy_list, ...) and returns its
// handle, or -1 when the settings do not validate. Call anticrawl_check
// with the same JSON to get the validation error text.
//
//export anticrawl_open
func anticrawl_open(settingsJSON *C.char) C.int {
	s, err := parseSettings(settingsJSON)
	if err != nil {
		return -1
	}

	cfg, err := anticrawl.NewConfig(s)
	if err != nil {
		return -1
	}

	return handleManager.add(anticrawl.New(cfg))
}

// anticrawl_draw returns one freshly drawn identity bundle as JSON. The
// bundle's delay field tells the engine how long to pause before the
// request; drawing itself never blocks.
//
//export anticrawl_draw
func anticrawl_draw(handle C.int) C.AnticrawlResult {
	p, ok := handleManager.get(handle)
	if !ok {
		return makeError(fmt.Sprintf("invalid provider handle: %d", handle))
	}

	data, err := json.Marshal(p.Next())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(string(data))
}

//export anticrawl_launch_args
func anticrawl_launch_args(handle C.int) C.AnticrawlResult {
	p, ok := handleManager.get(handle)
	if !ok {
		return makeError(fmt.Sprintf("invalid provider handle: %d", handle))
	}

	data, err := json.Marshal(p.LaunchArguments())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(string(data))
}

//export anticrawl_snapshot
func anticrawl_snapshot(handle C.int) C.AnticrawlResult {
	p, ok := handleManager.get(handle)
	if !ok {
		return makeError(fmt.Sprintf("invalid provider handle: %d", handle))
	}

	data, err := json.Marshal(p.Snapshot())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(string(data))
}

//export anticrawl_close
func anticrawl_close(handle C.int) {
	handleManager.remove(handle)
}
