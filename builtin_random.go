// builtin_random.go: the random.* category, backed by one seedable PRNG
// per Runtime (guarded by the runtime's mutex, since timer callbacks may
// draw concurrently with script code).
package ebscript

import (
	crand "crypto/rand"
	"encoding/hex"
	mrand "math/rand"
	"time"
)

type randSource = *mrand.Rand

func newRandSource() randSource {
	return mrand.New(mrand.NewSource(time.Now().UnixNano()))
}

func (r *Runtime) randDo(fn func(rng *mrand.Rand)) {
	r.randMu.Lock()
	defer r.randMu.Unlock()
	fn(r.randSrc)
}

func registerRandomBuiltins(reg *Registry) {
	def(reg, "random.seed", "Seed the generator for reproducible sequences.", KindBool,
		[]ParamSpec{reqParam("seed", KindLong)},
		func(ip *Interp, args []Value) (Value, error) {
			ip.rt.randDo(func(rng *mrand.Rand) {
				rng.Seed(args[0].asLong())
			})
			return BoolVal(true), nil
		})

	def(reg, "random.int", "Uniform integer in [min, max].", KindInt,
		[]ParamSpec{reqParam("min", KindInt), reqParam("max", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			lo, hi := args[0].asInt(), args[1].asInt()
			if hi < lo {
				return Null, argErrf("random.int", "max %d is below min %d", hi, lo)
			}
			var out int32
			ip.rt.randDo(func(rng *mrand.Rand) {
				out = lo + rng.Int31n(hi-lo+1)
			})
			return IntVal(out), nil
		})

	def(reg, "random.double", "Uniform double in [0, 1).", KindDouble, nil,
		func(ip *Interp, args []Value) (Value, error) {
			var out float64
			ip.rt.randDo(func(rng *mrand.Rand) {
				out = rng.Float64()
			})
			return DoubleVal(out), nil
		})

	def(reg, "random.bool", "Fair coin flip.", KindBool, nil,
		func(ip *Interp, args []Value) (Value, error) {
			var out bool
			ip.rt.randDo(func(rng *mrand.Rand) {
				out = rng.Intn(2) == 1
			})
			return BoolVal(out), nil
		})

	def(reg, "random.string", "Random alphanumeric string of the given length.", KindString,
		[]ParamSpec{reqParam("length", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			n := int(args[0].asInt())
			if n < 0 {
				return Null, argErrf("random.string", "length must not be negative, got %d", n)
			}
			const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
			out := make([]byte, n)
			ip.rt.randDo(func(rng *mrand.Rand) {
				for i := range out {
					out[i] = alphabet[rng.Intn(len(alphabet))]
				}
			})
			return StringVal(string(out)), nil
		})

	def(reg, "random.uuid", "Random 128-bit identifier as 32 hex characters.", KindString, nil,
		func(ip *Interp, args []Value) (Value, error) {
			buf := make([]byte, 16)
			if _, err := crand.Read(buf); err != nil {
				return Null, rtErrf(CryptoError, "random.uuid", "%v", err)
			}
			return StringVal(hex.EncodeToString(buf)), nil
		})
}
