package uri

import (
	"fmt"
	"strings"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

// ExtractContentHash returns the content hash referenced by a URI.
// Only the last path segment is considered, and only when it carries the
// CIDv0 prefix "Qm". Anything else yields ok=false; this is not a URI parser.
//
//	https://ipfs.pixura.io/ipfs/QmVJ2dj5ZsSCPZ6AJzX6Ahq9UpNZ5uTqTmBkczDG3xnUyJ -> QmVJ2dj5...
//	ipfs://QmVJ2dj5ZsSCPZ6AJzX6Ahq9UpNZ5uTqTmBkczDG3xnUyJ                   -> QmVJ2dj5...
//	https://example.com/metadata/7                                          -> "", false
func ExtractContentHash(uri string) (string, bool) {
	segment := uri
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		segment = uri[i+1:]
	}

	if !strings.HasPrefix(segment, domain.CONTENT_HASH_PREFIX) {
		return "", false
	}

	return segment, true
}

// IPFSGatewayURL builds the HTTP URL of a content hash on an IPFS gateway
func IPFSGatewayURL(gateway string, hash string) string {
	return fmt.Sprintf("%s/ipfs/%s", strings.TrimRight(gateway, "/"), hash)
}
