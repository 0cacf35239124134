//go:build !linux && !darwin && !windows

package ipc

// Peer credentials are not read on the BSDs and other unix systems. The
// socket's 0600 mode is the only guard against other users there.
func peerUIDMatchesCurrentUser(conn Conn) (bool, error) {
	return true, nil
}
