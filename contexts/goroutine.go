package contexts

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's id from its own stack
// trace header ("goroutine 123 [running]:"). RecursiveSerial uses it to
// detect same-goroutine reentrancy and ThreadAffine to recognise its own
// goroutine; nothing in the core package depends on goroutine identity.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
