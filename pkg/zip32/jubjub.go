package zip32

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
	"github.com/dchest/blake2s"
)

// Point is an affine Jubjub point (u, v) on -u^2 + v^2 = 1 + d*u^2*v^2 over
// the BLS12-381 scalar field.
type Point = twistededwards.PointAffine

// groupHashURS is the first BLAKE2s block of every GroupHash^J invocation.
const groupHashURS = "096b36a5804bfacef1691e173c366a47ff5ba84a44f26ddd7e8d9f79d5b42df0"

// BLAKE2s personalizations for GroupHash^J and CRH^ivk.
const (
	spendingKeyGeneratorPersonalization        = "Zcash_G_"
	proofGenerationKeyGeneratorPersonalization = "Zcash_H_"
	diversifierHashPersonalization             = "Zcash_gd"
	incomingViewingKeyPersonalization          = "Zcashivk"
)

var (
	// jubjubOrder is r_J, the order of the prime-order subgroup.
	jubjubOrder, _ = new(big.Int).SetString("0e7db4ea6533afa906673b0101343b00a6682093ccc81082d0970e5ed6f72cb7", 16)

	cofactor = big.NewInt(8)

	// edwardsD is d = -(10240/10241).
	edwardsD fr.Element
	feOne    fr.Element

	spendingKeyGenerator        Point
	proofGenerationKeyGenerator Point
)

func init() {
	// Point arithmetic reads the package-level curve parameters, which
	// gnark-crypto only fills in on first GetEdwardsCurve call.
	curve := twistededwards.GetEdwardsCurve()
	edwardsD.Set(&curve.D)

	feOne.SetOne()

	spendingKeyGenerator = findGroupHash(nil, spendingKeyGeneratorPersonalization)
	proofGenerationKeyGenerator = findGroupHash(nil, proofGenerationKeyGeneratorPersonalization)
}

// groupHash implements GroupHash^J: hash to a prime-order subgroup point, or
// report false when the digest does not decode or lands on the identity.
func groupHash(msg []byte, personalization string) (Point, bool) {
	h, _ := blake2s.New(&blake2s.Config{Size: 32, Person: []byte(personalization)})
	h.Write([]byte(groupHashURS))
	h.Write(msg)

	var repr [32]byte
	copy(repr[:], h.Sum(nil))

	p, ok := decodePoint(repr)
	if !ok {
		return Point{}, false
	}
	p = scalarMult(&p, cofactor)
	if isIdentity(&p) {
		return Point{}, false
	}
	return p, true
}

// findGroupHash appends a counter byte to msg until groupHash succeeds. Used
// only for the fixed generators, which succeed within the first few tries.
func findGroupHash(msg []byte, personalization string) Point {
	tag := append(append([]byte{}, msg...), 0)
	last := len(tag) - 1
	for {
		if p, ok := groupHash(tag, personalization); ok {
			return p
		}
		if tag[last] == 0xff {
			panic("zip32: generator search exhausted for " + personalization)
		}
		tag[last]++
	}
}

// decodePoint parses the 32-byte Jubjub encoding: little-endian v with the
// sign of u in the top bit. Non-canonical v and the (u = 0, sign = 1)
// encoding are rejected.
func decodePoint(repr [32]byte) (Point, bool) {
	sign := repr[31] >> 7
	repr[31] &= 0x7f

	v := leToBig(repr[:])
	if v.Cmp(fr.Modulus()) >= 0 {
		return Point{}, false
	}

	var p Point
	p.Y.SetBigInt(v)

	// u^2 = (v^2 - 1) / (d*v^2 + 1)
	var v2, num, den, u2 fr.Element
	v2.Square(&p.Y)
	num.Sub(&v2, &feOne)
	den.Mul(&edwardsD, &v2)
	den.Add(&den, &feOne)
	den.Inverse(&den)
	u2.Mul(&num, &den)

	if p.X.Sqrt(&u2) == nil {
		return Point{}, false
	}
	if fieldParity(&p.X) != sign {
		p.X.Neg(&p.X)
	}
	if p.X.IsZero() && sign == 1 {
		return Point{}, false
	}
	return p, true
}

// encodePoint is the inverse of decodePoint.
func encodePoint(p *Point) [32]byte {
	be := p.Y.Bytes()
	var out [32]byte
	for i := range be {
		out[i] = be[31-i]
	}
	out[31] |= fieldParity(&p.X) << 7
	return out
}

// decodeSubgroupPoint decodes repr and additionally requires the point to be
// in the prime-order subgroup.
func decodeSubgroupPoint(repr [32]byte) (Point, bool) {
	p, ok := decodePoint(repr)
	if !ok {
		return Point{}, false
	}
	check := scalarMult(&p, jubjubOrder)
	if !isIdentity(&check) {
		return Point{}, false
	}
	return p, true
}

func fieldParity(e *fr.Element) byte {
	b := e.Bytes()
	return b[len(b)-1] & 1
}

func scalarMult(p *Point, k *big.Int) Point {
	var r Point
	r.ScalarMultiplication(p, k)
	return r
}

func isIdentity(p *Point) bool {
	return p.X.IsZero() && p.Y.Equal(&feOne)
}

func pointsEqual(a, b *Point) bool {
	return a.X.Equal(&b.X) && a.Y.Equal(&b.Y)
}

// leToBig interprets b as a little-endian unsigned integer.
func leToBig(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[i] = b[len(b)-1-i]
	}
	return new(big.Int).SetBytes(be)
}

// bigToLE32 writes x (< 2^256) as 32 little-endian bytes.
func bigToLE32(x *big.Int) [32]byte {
	var be [32]byte
	x.FillBytes(be[:])
	var out [32]byte
	for i := range be {
		out[i] = be[31-i]
	}
	return out
}

// toScalar reduces a 64-byte little-endian value modulo r_J.
func toScalar(wide []byte) *big.Int {
	s := leToBig(wide)
	return s.Mod(s, jubjubOrder)
}

// scalarFromRepr parses a canonical 32-byte little-endian Jubjub scalar.
func scalarFromRepr(repr []byte) (*big.Int, bool) {
	s := leToBig(repr)
	if s.Cmp(jubjubOrder) >= 0 {
		return nil, false
	}
	return s, true
}
