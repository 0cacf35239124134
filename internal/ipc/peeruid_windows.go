//go:build windows

package ipc

// Named pipes are created with the default security descriptor, which only
// grants the owner and administrators access.
func peerUIDMatchesCurrentUser(conn Conn) (bool, error) {
	return true, nil
}
