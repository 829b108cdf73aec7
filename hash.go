package weight_inspect

import (
	"github.com/weightops/weight-inspect-go/util/stringx"
)

// Hash returns the structural identity of the Artifact:
// the SHA-256 digest of its canonical byte form, as 64 lowercase hex
// characters.
//
// Hash(a) == Hash(b) exactly when Diff(a, b) reports no changes.
func Hash(af *Artifact) string {
	return stringx.SumBytesBySHA256(Canonicalize(af))
}
