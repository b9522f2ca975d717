// Package main builds libanticrawl, the C shared library that exposes
// the identity layer to non-Go crawl engines.
//
// Build with:
//
//	CGO_ENABLED=1 go build -buildmode=c-shared -o libanticrawl.so ./pkg/ffi/
//
// All inputs/outputs are C strings. Complex data is JSON-serialized.
// The AnticrawlResult type provides both data and error fields.
// Callers must free results with anticrawl_result_free.
package main

// #include "anticrawl.h"
import "C"
import (
	"unsafe"

	"github.com/searcrawl/anticrawl/internal/version"
)

// === Memory Management ===

//export anticrawl_result_free
func anticrawl_result_free(result C.AnticrawlResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// === Version ===

//export anticrawl_version
func anticrawl_version() C.AnticrawlResult {
	return makeResult(version.String())
}

// helpers

func makeResult(data string) C.AnticrawlResult {
	cData := C.CString(data)
	return C.AnticrawlResult{
		data:  cData,
		len:   C.int(len(data)),
		error: nil,
	}
}

func makeError(msg string) C.AnticrawlResult {
	cErr := C.CString(msg)
	return C.AnticrawlResult{
		data:  nil,
		len:   0,
		error: cErr,
	}
}

// main is required for c-shared build mode but should not be called.
func main() {}
