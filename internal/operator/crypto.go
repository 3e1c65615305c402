package operator

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerCryptoOps registers `@crypto.hash(alg, data)` over the
// standard library's crypto/sha256, crypto/sha1, and crypto/md5, the
// same digests the teacher pack's dependency surface has no
// third-party alternative for (golang.org/x/crypto, pulled in
// transitively by the teacher's module graph, covers ciphers and key
// derivation it does not replace these well-known stdlib digests for).
func registerCryptoOps(r *Registry) {
	r.Register("crypto.hash", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires an algorithm name and data")
		}
		alg := value.ToString(positional[0])
		data := []byte(value.ToString(positional[1]))
		var sum []byte
		switch alg {
		case "sha256":
			h := sha256.Sum256(data)
			sum = h[:]
		case "sha1":
			h := sha1.Sum(data)
			sum = h[:]
		case "md5":
			h := md5.Sum(data)
			sum = h[:]
		default:
			return cty.NilVal, fmt.Errorf("unsupported hash algorithm %q (supported: sha256, sha1, md5)", alg)
		}
		return value.String(hex.EncodeToString(sum)), nil
	})
}
