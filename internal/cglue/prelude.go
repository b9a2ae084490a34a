package cglue

import (
	"path"

	"ffigen/internal/backend"
)

// PreludePath is where the shared boundary declarations of one library live.
func PreludePath(lib string) string {
	return path.Join(lib, "ffigen.ffi.h")
}

// Prelude renders the per-library prelude header. Every glue header includes
// it; the sink helpers are self-contained so generated code links against
// nothing but the native library itself.
func Prelude(lib string) backend.File {
	return backend.File{Path: PreludePath(lib), Content: []byte(preludeText)}
}

const preludeText = `// Code generated by ffigen. DO NOT EDIT.

#ifndef FFIGEN_FFI_PRELUDE_H
#define FFIGEN_FFI_PRELUDE_H

#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// ffigen_str is a borrowed (pointer, length) UTF-8 view. It is never
// NUL-terminated and never owns its bytes.
typedef struct {
    const uint8_t *ptr;
    size_t len;
} ffigen_str;

// ffigen_sink is a caller-allocated growable byte sink the native side
// appends into. Zero-initialize it before the call; release with
// ffigen_sink_free once the content has been consumed.
typedef struct {
    uint8_t *data;
    size_t len;
    size_t cap;
} ffigen_sink;

static inline int ffigen_sink_append(ffigen_sink *sink, const uint8_t *data, size_t len) {
    if (sink->len + len > sink->cap) {
        size_t cap = sink->cap ? sink->cap : 16;
        while (cap < sink->len + len) {
            cap *= 2;
        }
        uint8_t *grown = (uint8_t *)realloc(sink->data, cap);
        if (!grown) {
            return 0;
        }
        sink->data = grown;
        sink->cap = cap;
    }
    if (len) {
        memcpy(sink->data + sink->len, data, len);
        sink->len += len;
    }
    return 1;
}

static inline void ffigen_sink_free(ffigen_sink *sink) {
    free(sink->data);
    sink->data = NULL;
    sink->len = 0;
    sink->cap = 0;
}

#endif // FFIGEN_FFI_PRELUDE_H
`
