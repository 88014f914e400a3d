package render

import (
	"strings"
	"sync"
)

// bufPool recycles the strings.Builder the render hot path writes into,
// the same pattern the juice translator uses around its own text-builder
// pool (getStringBuilder/putStringBuilder) to keep Render allocation-free
// on repeat calls against the same Blueprint.
var bufPool = sync.Pool{
	New: func() any { return &strings.Builder{} },
}

func getBuffer() *strings.Builder {
	return bufPool.Get().(*strings.Builder)
}

func putBuffer(b *strings.Builder) {
	b.Reset()
	bufPool.Put(b)
}
