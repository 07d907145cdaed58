package protocol

// ServerVersion is the protocol version this build of the server speaks.
// A client's Hello is rejected if it names an incompatible version.
const ServerVersion uint8 = 1

// InitMessage is the fixed header a ClientHello must carry, a cheap sanity
// check that the socket is actually speaking this protocol before the
// version field is even inspected.
const InitMessage = "helo"

// EmptyTicksShutdown is how many consecutive ticks a game may run with at
// most one attached listener before the server tears it down.
const EmptyTicksShutdown = 60 * 20

// Compatible reports whether a client's declared header/version can join
// a server running ServerVersion.
func Compatible(header string, version uint8) bool {
	return header == InitMessage && version == ServerVersion
}
