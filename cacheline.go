package relay

import "golang.org/x/sys/cpu"

// cacheLinePad is placed between hot fields that are written by different
// goroutines to prevent false sharing — the staging mutex, the free-list
// mutex, the condition variable, and the work-in-flight counter in
// EventQueue each sit on their own cache line.
//
// cpu.CacheLinePad already resolves to a per-architecture size (64 bytes
// on amd64, 128 bytes on arm64, and each other architecture's own value)
// instead of a single hardcoded constant.
type cacheLinePad = cpu.CacheLinePad
