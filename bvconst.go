package hwprove

import (
	"fmt"
	"math/big"
	"strings"
)

var zero = big.NewInt(0)
var one = big.NewInt(1)

// BVConst is a concrete bit-vector of arbitrary width. The value is always
// kept in [0, 2^Size).
type BVConst struct {
	Size  uint
	mask  *big.Int
	value *big.Int
}

func makeMask(size uint) *big.Int {
	v := new(big.Int).Lsh(one, size)
	return v.Sub(v, one)
}

func MakeBVConst(value int64, size uint) *BVConst {
	return MakeBVConstFromBigint(big.NewInt(value), size)
}

// MakeBVConstFromBigint wraps value modulo 2^size. Negative values are taken
// in two's complement.
func MakeBVConstFromBigint(value *big.Int, size uint) *BVConst {
	if size == 0 {
		return nil
	}

	mask := makeMask(size)
	v := new(big.Int).And(value, mask)
	return &BVConst{Size: size, mask: mask, value: v}
}

// ParseBVConst parses a decimal, 0x or 0b literal of the given width. Unlike
// MakeBVConst it rejects values that do not fit: anything outside
// [-2^(size-1), 2^size).
func ParseBVConst(s string, size uint) (*BVConst, error) {
	if size == 0 {
		return nil, fmt.Errorf("zero-width literal %q", s)
	}

	str := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	neg := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	base := 10
	switch {
	case strings.HasPrefix(str, "0x"), strings.HasPrefix(str, "0X"):
		base, str = 16, str[2:]
	case strings.HasPrefix(str, "0b"), strings.HasPrefix(str, "0B"):
		base, str = 2, str[2:]
	}

	v, ok := new(big.Int).SetString(str, base)
	if !ok {
		return nil, fmt.Errorf("malformed literal %q", s)
	}
	if neg {
		v.Neg(v)
	}
	if !FitsWidth(v, size) {
		return nil, fmt.Errorf("literal %q does not fit in %d bits", s, size)
	}
	return MakeBVConstFromBigint(v, size), nil
}

// FitsWidth reports whether v is representable in size bits, either as an
// unsigned value or as a two's complement negative value.
func FitsWidth(v *big.Int, size uint) bool {
	if v.Sign() >= 0 {
		return uint(v.BitLen()) <= size
	}
	minNeg := new(big.Int).Lsh(one, size-1)
	minNeg.Neg(minNeg)
	return v.Cmp(minNeg) >= 0
}

func (bv *BVConst) IsNegative() bool {
	return bv.value.Bit(int(bv.Size)-1) == 1
}

func (bv *BVConst) IsZero() bool {
	return bv.value.Cmp(zero) == 0
}

func (bv *BVConst) IsOne() bool {
	return bv.value.Cmp(one) == 0
}

func (bv *BVConst) HasAllBitsSet() bool {
	return bv.value.Cmp(bv.mask) == 0
}

// Bit returns the i-th bit, 0 being the least significant.
func (bv *BVConst) Bit(i uint) uint {
	return bv.value.Bit(int(i))
}

// Big returns a copy of the unsigned value.
func (bv *BVConst) Big() *big.Int {
	return new(big.Int).Set(bv.value)
}

// SignedBig returns a copy of the value read as two's complement.
func (bv *BVConst) SignedBig() *big.Int {
	v := bv.Big()
	if bv.IsNegative() {
		v.Sub(v, new(big.Int).Lsh(one, bv.Size))
	}
	return v
}

func (bv *BVConst) Copy() *BVConst {
	return &BVConst{
		Size:  bv.Size,
		mask:  new(big.Int).Set(bv.mask),
		value: new(big.Int).Set(bv.value),
	}
}

func (bv *BVConst) String() string {
	return fmt.Sprintf("<BV%d 0x%x>", bv.Size, bv.value)
}

// Format renders the value the way hardware tools print typed literals,
// e.g. "bits[8]:0xff".
func (bv *BVConst) Format() string {
	return fmt.Sprintf("bits[%d]:0x%x", bv.Size, bv.value)
}

func (bv *BVConst) AsULong() uint64 {
	// if it does not fit in 64 bits, result is undefined
	return bv.value.Uint64()
}

func (bv *BVConst) AsLong() int64 {
	// if it does not fit in 64 bits, result is undefined
	return bv.SignedBig().Int64()
}

func (bv *BVConst) Not() {
	bv.value.Not(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Neg() {
	bv.value.Neg(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) checkSize(o *BVConst) error {
	if bv.Size != o.Size {
		return fmt.Errorf("different sizes %d and %d", bv.Size, o.Size)
	}
	return nil
}

func (bv *BVConst) Add(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.Add(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Sub(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.Sub(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Mul(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.Mul(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

// UDiv divides as unsigned integers. Division by zero yields all ones.
func (bv *BVConst) UDiv(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	if o.IsZero() {
		bv.value.Set(bv.mask)
		return nil
	}
	bv.value.Quo(bv.value, o.value)
	return nil
}

// SDiv divides as two's complement integers, truncating toward zero.
// Division by zero yields the largest positive value for a non-negative
// dividend and the most negative value otherwise.
func (bv *BVConst) SDiv(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	if o.IsZero() {
		maxPos := makeMask(bv.Size - 1)
		if bv.IsNegative() {
			bv.value.Add(maxPos, one)
		} else {
			bv.value.Set(maxPos)
		}
		return nil
	}

	res := bv.SignedBig()
	res.Quo(res, o.SignedBig())
	bv.value = res.And(res, bv.mask)
	return nil
}

func (bv *BVConst) And(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.And(bv.value, o.value)
	return nil
}

func (bv *BVConst) Or(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.Or(bv.value, o.value)
	return nil
}

func (bv *BVConst) Xor(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}

	bv.value.Xor(bv.value, o.value)
	return nil
}

func (bv *BVConst) AShr(n uint) {
	if n == 0 {
		return
	}
	if n >= bv.Size {
		if bv.IsNegative() {
			bv.value.Set(bv.mask)
		} else {
			bv.value.SetInt64(0)
		}
		return
	}

	isNeg := bv.IsNegative()
	bv.value.Rsh(bv.value, n)
	if isNeg {
		fill := makeMask(n)
		fill.Lsh(fill, bv.Size-n)
		bv.value.Or(bv.value, fill)
	}
}

func (bv *BVConst) LShr(n uint) {
	if n >= bv.Size {
		bv.value.SetInt64(0)
		return
	}
	bv.value.Rsh(bv.value, n)
}

func (bv *BVConst) Shl(n uint) {
	if n >= bv.Size {
		bv.value.SetInt64(0)
		return
	}
	bv.value.Lsh(bv.value, n)
	bv.value.And(bv.value, bv.mask)
}

// Concat appends o below bv: bv ends up in the most significant bits.
func (bv *BVConst) Concat(o *BVConst) {
	bv.ZExt(o.Size)
	bv.Shl(o.Size)
	bv.value.Or(bv.value, o.value)
}

// Slice returns bits [high, low] as a new constant.
func (bv *BVConst) Slice(high uint, low uint) *BVConst {
	if high < low || high >= bv.Size {
		return nil
	}

	res := MakeBVConst(0, high-low+1)
	res.value.Rsh(bv.value, low)
	res.value.And(res.value, res.mask)
	return res
}

func (bv *BVConst) Truncate(size uint) {
	if size == 0 || size >= bv.Size {
		return
	}
	bv.Size = size
	bv.mask = makeMask(size)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) ZExt(bits uint) {
	bv.Size += bits
	bv.mask = makeMask(bv.Size)
}

func (bv *BVConst) SExt(bits uint) {
	if !bv.IsNegative() {
		bv.ZExt(bits)
		return
	}

	newBits := makeMask(bits)
	newBits.Lsh(newBits, bv.Size)
	bv.value.Or(bv.value, newBits)

	bv.Size += bits
	bv.mask = makeMask(bv.Size)
}

// Resize zero- or sign-extends, or truncates, to exactly size bits.
func (bv *BVConst) Resize(size uint, signed bool) {
	switch {
	case size < bv.Size:
		bv.Truncate(size)
	case size > bv.Size && signed:
		bv.SExt(size - bv.Size)
	case size > bv.Size:
		bv.ZExt(size - bv.Size)
	}
}

func (bv *BVConst) Eq(o *BVConst) (bool, error) {
	if err := bv.checkSize(o); err != nil {
		return false, err
	}
	return bv.value.Cmp(o.value) == 0, nil
}

func (bv *BVConst) ULt(o *BVConst) (bool, error) {
	if err := bv.checkSize(o); err != nil {
		return false, err
	}
	return bv.value.Cmp(o.value) < 0, nil
}

func (bv *BVConst) SLt(o *BVConst) (bool, error) {
	if err := bv.checkSize(o); err != nil {
		return false, err
	}
	return bv.SignedBig().Cmp(o.SignedBig()) < 0, nil
}
