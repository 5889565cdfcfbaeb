package goroutine

import (
	"bytes"
	"runtime"
	"strconv"
)

// ID returns the numeric id of the calling goroutine, parsed from the stack
// header ("goroutine 18 [running]:"). The runtime guarantees ids are never
// reused while the goroutine is alive and never zero.
func ID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	header := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}
	id, err := strconv.ParseUint(string(header), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
