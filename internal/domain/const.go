package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY = "https://ipfs.io"

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// ARTWORK_VERSION tags every artwork key and record indexed by this schema
	ARTWORK_VERSION = "V1"

	// CONTENT_HASH_PREFIX is the CIDv0 marker accepted by the content hash heuristic
	CONTENT_HASH_PREFIX = "Qm"
)
