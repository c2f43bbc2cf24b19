// Package fixedpoint implements the numeric kernel every estimator, mixer
// and APM in the pipeline is built on: typed scalars holding a raw integer
// plus an explicit fractional-bit count, with checked, saturating
// conversions between fractional scales.
//
// Go has no const-generic way to attach the fractional-bit count to a
// type the way the original's per-width traits do, so each canonical
// scalar (FractOnlyU32, StretchedProbD, ...) is its own small struct in
// types.go; this file holds the shared raw-integer arithmetic they are
// built from, one function family per machine width, mirroring the
// original's fix_u32/fix_i32/fix_u64/fix_i64 modules.
package fixedpoint

import (
	"math"

	"github.com/pkg/errors"

	"github.com/colewyeth/paqmix/errs"
)

// ChecksEnabled is the Go equivalent of the single global CHECKS_ENABLED
// boolean: a compile-time constant rather than a runtime flag, so the
// compiler can eliminate the checked paths entirely when it is false.
const ChecksEnabled = true

// roundedShiftU64 shifts raw right by shift bits, rounding half up. A
// shift of 0 is the identity.
func roundedShiftU64(raw uint64, shift uint) uint64 {
	if shift == 0 {
		return raw
	}
	half := uint64(1) << (shift - 1)
	return (raw + half) >> shift
}

// ScaledDownU32 rescales a raw unsigned value from fromBits fractional
// bits to toBits, rounding half up and saturating at math.MaxUint32.
func ScaledDownU32(raw uint32, fromBits, toBits uint8) uint32 {
	if toBits >= fromBits {
		shift := toBits - fromBits
		widened := uint64(raw) << shift
		if widened > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(widened)
	}
	shift := uint(fromBits - toBits)
	result := roundedShiftU64(uint64(raw), shift)
	if result > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(result)
}

// ScaledDownU64 is ScaledDownU32's 64-bit-raw counterpart.
func ScaledDownU64(raw uint64, fromBits, toBits uint8) uint64 {
	if toBits >= fromBits {
		shift := toBits - fromBits
		if shift >= 64 {
			return math.MaxUint64
		}
		if raw > (math.MaxUint64 >> shift) {
			return math.MaxUint64
		}
		return raw << shift
	}
	return roundedShiftU64(raw, uint(fromBits-toBits))
}

// roundedShiftMagnitudeI64 rounds the magnitude of a signed value half up
// (i.e. half-away-from-zero), matching the source's signum-chosen bias.
func roundedShiftMagnitudeI64(raw int64, shift uint) int64 {
	sign := int64(1)
	mag := raw
	if mag < 0 {
		sign = -1
		mag = -mag
	}
	if shift == 0 {
		return sign * mag
	}
	half := int64(1) << (shift - 1)
	mag = (mag + half) >> shift
	return sign * mag
}

// ScaledDownI32 rescales a raw signed value between fractional scales,
// rounding the magnitude half up and saturating at [math.MinInt32+1,
// math.MaxInt32] (the source's "MIN+1" rule, keeping the range symmetric
// so negation never overflows).
func ScaledDownI32(raw int32, fromBits, toBits uint8) int32 {
	if toBits >= fromBits {
		shift := toBits - fromBits
		widened := int64(raw) << shift
		return saturateI32(widened)
	}
	result := roundedShiftMagnitudeI64(int64(raw), uint(fromBits-toBits))
	return saturateI32(result)
}

// ScaledDownI64 is ScaledDownI32's wide-raw counterpart; saturation uses
// the full int64 range since there is no wider integer to accumulate
// into.
func ScaledDownI64(raw int64, fromBits, toBits uint8) int64 {
	if toBits >= fromBits {
		shift := uint(toBits - fromBits)
		if shift >= 63 {
			if raw > 0 {
				return math.MaxInt64
			}
			return math.MinInt64 + 1
		}
		widened := raw << shift
		if widened>>shift != raw {
			if raw > 0 {
				return math.MaxInt64
			}
			return math.MinInt64 + 1
		}
		return widened
	}
	return roundedShiftMagnitudeI64(raw, uint(fromBits-toBits))
}

func saturateI32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32+1 {
		return math.MinInt32 + 1
	}
	return int32(v)
}

// MulU32 multiplies two unsigned raw values with aBits and bBits
// fractional bits respectively, producing a result with targetBits
// fractional bits. The intermediate product is computed in 64-bit
// arithmetic so no precision is lost before the final rounding shift.
func MulU32(aRaw uint32, aBits uint8, bRaw uint32, bBits uint8, targetBits uint8) uint32 {
	wide := uint64(aRaw) * uint64(bRaw)
	return ScaledDownU32FromU64(wide, aBits+bBits, targetBits)
}

// ScaledDownU32FromU64 rescales a wide 64-bit raw product into a 32-bit
// result, rounding half up and saturating.
func ScaledDownU32FromU64(raw uint64, fromBits, toBits uint8) uint32 {
	if toBits >= fromBits {
		shift := uint(toBits - fromBits)
		if shift >= 32 || raw > (math.MaxUint32>>shift) {
			return math.MaxUint32
		}
		return uint32(raw << shift)
	}
	result := roundedShiftU64(raw, uint(fromBits-toBits))
	if result > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(result)
}

// MulWideU32 returns the exact, lossless product of two unsigned raw
// values (fractional bits = aBits + bBits, left to the caller to track).
func MulWideU32(aRaw, bRaw uint32) uint64 {
	return uint64(aRaw) * uint64(bRaw)
}

// MulI32 is MulU32's signed counterpart.
func MulI32(aRaw int32, aBits uint8, bRaw int32, bBits uint8, targetBits uint8) int32 {
	wide := int64(aRaw) * int64(bRaw)
	return ScaledDownI32FromI64(wide, aBits+bBits, targetBits)
}

// ScaledDownI32FromI64 rescales a wide 64-bit signed raw value into a
// 32-bit result.
func ScaledDownI32FromI64(raw int64, fromBits, toBits uint8) int32 {
	if toBits >= fromBits {
		shift := uint(toBits - fromBits)
		widened := raw << shift
		if shift < 63 && widened>>shift == raw {
			return saturateI32(widened)
		}
		return saturateI32(math.MaxInt64)
	}
	return saturateI32(roundedShiftMagnitudeI64(raw, uint(fromBits-toBits)))
}

// CheckAddU32 adds two raw unsigned values, failing with ErrNumericRange
// on overflow when checks are enabled.
func CheckAddU32(a, b uint32) (uint32, error) {
	result := a + b
	if ChecksEnabled && result < a {
		return 0, errors.Wrapf(errs.ErrNumericRange, "u32 add overflow: %d + %d", a, b)
	}
	return result, nil
}

// CheckSubU32 subtracts raw unsigned values, failing with ErrNumericRange
// on underflow when checks are enabled.
func CheckSubU32(a, b uint32) (uint32, error) {
	if ChecksEnabled && b > a {
		return 0, errors.Wrapf(errs.ErrNumericRange, "u32 sub underflow: %d - %d", a, b)
	}
	return a - b, nil
}

// CheckAddI32 adds two raw signed values, failing with ErrNumericRange on
// overflow when checks are enabled.
func CheckAddI32(a, b int32) (int32, error) {
	result := int64(a) + int64(b)
	if ChecksEnabled && (result > math.MaxInt32 || result < math.MinInt32) {
		return 0, errors.Wrapf(errs.ErrNumericRange, "i32 add overflow: %d + %d", a, b)
	}
	return int32(result), nil
}

// CheckSubI32 subtracts two raw signed values, failing with
// ErrNumericRange on overflow when checks are enabled.
func CheckSubI32(a, b int32) (int32, error) {
	result := int64(a) - int64(b)
	if ChecksEnabled && (result > math.MaxInt32 || result < math.MinInt32) {
		return 0, errors.Wrapf(errs.ErrNumericRange, "i32 sub overflow: %d - %d", a, b)
	}
	return int32(result), nil
}
