// builtin_crypto.go: the crypto.* category. Hashes return lower-case hex;
// crypto.xor is symmetric key obfuscation, not encryption.
package ebscript

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
)

func hexDigest(h hash.Hash, data []byte) string {
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func registerCryptoBuiltins(reg *Registry) {
	def(reg, "crypto.md5", "MD5 digest of text, hex-encoded.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(hexDigest(md5.New(), []byte(args[0].asString()))), nil
		})

	def(reg, "crypto.sha256", "SHA-256 digest of text, hex-encoded.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(hexDigest(sha256.New(), []byte(args[0].asString()))), nil
		})

	def(reg, "crypto.sha512", "SHA-512 digest of text, hex-encoded.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(hexDigest(sha512.New(), []byte(args[0].asString()))), nil
		})

	def(reg, "crypto.hmacsha256", "HMAC-SHA256 of text under key, hex-encoded.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("key", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			mac := hmac.New(sha256.New, []byte(args[1].asString()))
			return StringVal(hexDigest(mac, []byte(args[0].asString()))), nil
		})

	def(reg, "crypto.base64encode", "Base64 of text.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(base64.StdEncoding.EncodeToString([]byte(args[0].asString()))), nil
		})

	def(reg, "crypto.base64decode", "Decode base64 back to text.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			out, err := base64.StdEncoding.DecodeString(args[0].asString())
			if err != nil {
				return Null, rtErrf(CryptoError, "crypto.base64decode", "invalid base64: %v", err)
			}
			return StringVal(string(out)), nil
		})

	def(reg, "crypto.xor", "XOR-obfuscate text with a repeating key; applying it twice restores the input.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("key", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			key := []byte(args[1].asString())
			if len(key) == 0 {
				return Null, argErrf("crypto.xor", "key must not be empty")
			}
			data := []byte(args[0].asString())
			out := make([]byte, len(data))
			for i, b := range data {
				out[i] = b ^ key[i%len(key)]
			}
			return StringVal(string(out)), nil
		})
}
