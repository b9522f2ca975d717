package main

// #include "anticrawl.h"
import "C"
import (
	"encoding/json"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// === Configuration ===

//export anticrawl_default_settings
func anticrawl_default_settings() C.AnticrawlResult {
	data, err := json.Marshal(anticrawl.DefaultSettings())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(string(data))
}

// anticrawl_check validates a settings JSON object without opening a
// handle. On success it returns the effective configuration snapshot; on
// failure the error names the offending setting and value.
//
//export anticrawl_check
func anticrawl_check(settingsJSON *C.char) C.AnticrawlResult {
	s, err := parseSettings(settingsJSON)
	if err != nil {
		return makeError(err.Error())
	}

	cfg, err := anticrawl.NewConfig(s)
	if err != nil {
		return makeError(err.Error())
	}

	data, err := json.Marshal(anticrawl.New(cfg).Snapshot())
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(string(data))
}
