// Package ed25519 implements the keys and signatures of the identities of the
// marketplace on the Edwards 25519 curve.
//
// Signatures use the Schnorr scheme. The text form of a public key,
// "schnorr:<hex>", is the address under which the marketplace knows a user.
package ed25519

import "go.dedis.ch/kyber/v3/suites"

// SignatureSize is the size in bytes of a Schnorr signature on the curve.
const SignatureSize = 64

const textPrefix = "schnorr:"

var suite = suites.MustFind("Ed25519")
