//go:build amd64

package relay

// procyieldHint emits cycles PAUSE instructions. Implemented in
// procyield_amd64.s.
func procyieldHint(cycles uint32)
