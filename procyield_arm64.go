//go:build arm64

package relay

// procyieldHint emits cycles YIELD instructions. Implemented in
// procyield_arm64.s.
func procyieldHint(cycles uint32)
