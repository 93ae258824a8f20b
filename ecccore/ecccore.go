// Package ecccore wraps the GM/T primitives used by securelog:
// SM2 负责封装/解封 SM4 对称密钥，SM4 负责加密敏感数据本体，
// Base64 与公钥指纹用于 SECURE_DATA 的外层表示。
package ecccore

import (
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	smcipher "github.com/emmansun/gmsm/cipher"
	"github.com/emmansun/gmsm/padding"
	"github.com/emmansun/gmsm/sm2"
	"github.com/emmansun/gmsm/sm4"
	"github.com/emmansun/gmsm/smx509"

	"github.com/geekfrog/securelog-ecc/errlist"
)

const (
	// Sm4KeySize is the SM4-128 key length in bytes.
	Sm4KeySize = 16
	// GCMIVSize is the nonce length for SM4-GCM.
	GCMIVSize = 12
	// BlockIVSize is the IV length for CBC/CTR/CFB/OFB.
	BlockIVSize = 16
	// FingerprintSize is the number of digest bytes kept in the fingerprint.
	FingerprintSize = 20
)

// Mode is a parsed SM4 cipher mode.
type Mode int

const (
	ModeGCM Mode = iota
	ModeCBC
	ModeCTR
	ModeCFB
	ModeOFB
	ModeECB
)

// public func

// ParseSm4Mode parses a transformation string like "SM4/GCM/NoPadding".
func ParseSm4Mode(transformation string) (Mode, error) {
	t := strings.ToUpper(transformation)
	switch {
	case strings.Contains(t, "/GCM/"):
		return ModeGCM, nil
	case strings.Contains(t, "/CBC/"):
		return ModeCBC, nil
	case strings.Contains(t, "/CTR/"):
		return ModeCTR, nil
	case strings.Contains(t, "/CFB/"):
		return ModeCFB, nil
	case strings.Contains(t, "/OFB/"):
		return ModeOFB, nil
	case strings.Contains(t, "/ECB/"), t == "SM4":
		return ModeECB, nil
	}
	return 0, errlist.ERR_MODE_NOT_SUPPORT
}

// IVSize returns the IV length in bytes for mode: GCM 12, ECB 0, others 16.
func IVSize(mode Mode) int {
	switch mode {
	case ModeGCM:
		return GCMIVSize
	case ModeECB:
		return 0
	default:
		return BlockIVSize
	}
}

// Base64Encode encodes with standard padding alphabet.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode decodes a standard Base64 string.
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// DecodePublicKey parses a Base64 X.509 (PKIX) SM2 public key.
func DecodePublicKey(base64PublicKey string) (*ecdsa.PublicKey, error) {
	der, err := Base64Decode(strings.TrimSpace(base64PublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errlist.ERR_PUBLIC_KEY_DECODE, err)
	}
	key, err := smx509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errlist.ERR_PUBLIC_KEY_DECODE, err)
	}
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok || pub.Curve != sm2.P256() {
		return nil, errlist.ERR_NOT_SM2_KEY
	}
	return pub, nil
}

// DecodePrivateKey parses a Base64 PKCS#8 SM2 private key.
func DecodePrivateKey(base64PrivateKey string) (*sm2.PrivateKey, error) {
	der, err := Base64Decode(strings.TrimSpace(base64PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errlist.ERR_PRIVATE_KEY_DECODE, err)
	}
	key, err := smx509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errlist.ERR_PRIVATE_KEY_DECODE, err)
	}
	switch k := key.(type) {
	case *sm2.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		if k.Curve != sm2.P256() {
			return nil, errlist.ERR_NOT_SM2_KEY
		}
		priv := new(sm2.PrivateKey)
		priv.PrivateKey = *k
		return priv, nil
	}
	return nil, errlist.ERR_NOT_SM2_KEY
}

// GenerateKeyPair creates a fresh SM2 key pair, both halves Base64 encoded:
// public as X.509 SubjectPublicKeyInfo, private as PKCS#8.
func GenerateKeyPair() (publicB64, privateB64 string, err error) {
	priv, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate sm2 key: %w", err)
	}
	pubDER, err := smx509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}
	privDER, err := smx509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	return Base64Encode(pubDER), Base64Encode(privDER), nil
}

// Sm2Encrypt wraps data (an SM4 key) under the SM2 public key.
func Sm2Encrypt(data []byte, pub *ecdsa.PublicKey) ([]byte, error) {
	out, err := sm2.Encrypt(rand.Reader, pub, data, nil)
	if err != nil {
		return nil, fmt.Errorf("sm2 encrypt: %w", err)
	}
	return out, nil
}

// Sm2Decrypt unwraps an SM2 ciphertext with the private key.
func Sm2Decrypt(ciphertext []byte, priv *sm2.PrivateKey) ([]byte, error) {
	out, err := sm2.Decrypt(priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("sm2 decrypt: %w", err)
	}
	return out, nil
}

// NewSm4Key returns 16 random bytes from crypto/rand.
func NewSm4Key() ([]byte, error) {
	key := make([]byte, Sm4KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("random sm4 key: %w", err)
	}
	return key, nil
}

// Sm4Encrypt encrypts plaintext under key with the given mode.
// GCM 的 128-bit tag 直接跟在密文后面；ECB 无 IV，返回空切片。
func Sm4Encrypt(mode Mode, key, plaintext []byte) (iv, ciphertext []byte, err error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, nil, err
	}
	switch mode {
	case ModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, nil, fmt.Errorf("sm4 gcm: %w", err)
		}
		iv = make([]byte, GCMIVSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, nil, fmt.Errorf("random iv: %w", err)
		}
		return iv, gcm.Seal(nil, iv, plaintext, nil), nil
	case ModeECB:
		padded := pkcs7.Pad(plaintext)
		out := make([]byte, len(padded))
		smcipher.NewECBEncrypter(block).CryptBlocks(out, padded)
		return []byte{}, out, nil
	}

	iv = make([]byte, BlockIVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("random iv: %w", err)
	}
	switch mode {
	case ModeCBC:
		padded := pkcs7.Pad(plaintext)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return iv, out, nil
	case ModeCTR:
		out := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
		return iv, out, nil
	case ModeCFB:
		out := make([]byte, len(plaintext))
		cipher.NewCFBEncrypter(block, iv).XORKeyStream(out, plaintext)
		return iv, out, nil
	case ModeOFB:
		out := make([]byte, len(plaintext))
		cipher.NewOFB(block, iv).XORKeyStream(out, plaintext)
		return iv, out, nil
	}
	return nil, nil, errlist.ERR_MODE_NOT_SUPPORT
}

// Sm4Decrypt reverses Sm4Encrypt.
func Sm4Decrypt(mode Mode, key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("sm4 gcm: %w", err)
		}
		if len(iv) != GCMIVSize || len(ciphertext) < gcm.Overhead() {
			return nil, errlist.ERR_CIPHERTEXT_SHORT
		}
		out, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("sm4 gcm open: %w", err)
		}
		return out, nil
	case ModeECB:
		if len(ciphertext) == 0 || len(ciphertext)%sm4.BlockSize != 0 {
			return nil, errlist.ERR_CIPHERTEXT_SHORT
		}
		out := make([]byte, len(ciphertext))
		smcipher.NewECBDecrypter(block).CryptBlocks(out, ciphertext)
		return pkcs7.Unpad(out)
	}

	if len(iv) != BlockIVSize {
		return nil, errlist.ERR_CIPHERTEXT_SHORT
	}
	switch mode {
	case ModeCBC:
		if len(ciphertext) == 0 || len(ciphertext)%sm4.BlockSize != 0 {
			return nil, errlist.ERR_CIPHERTEXT_SHORT
		}
		out := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		return pkcs7.Unpad(out)
	case ModeCTR:
		out := make([]byte, len(ciphertext))
		cipher.NewCTR(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	case ModeCFB:
		out := make([]byte, len(ciphertext))
		cipher.NewCFBDecrypter(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	case ModeOFB:
		out := make([]byte, len(ciphertext))
		cipher.NewOFB(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	}
	return nil, errlist.ERR_MODE_NOT_SUPPORT
}

// PublicKeyFingerprint is Base64(SHA-256(DER(pubkey))[0:20]).
// 空串/解码失败返回空串，调用方据此跳过指纹输出。
func PublicKeyFingerprint(base64PublicKey string) string {
	trimmed := strings.TrimSpace(base64PublicKey)
	if len(trimmed) == 0 {
		return ""
	}
	decoded, err := Base64Decode(trimmed)
	if err != nil {
		return ""
	}
	digest := sha256.Sum256(decoded)
	n := FingerprintSize
	if n > len(digest) {
		n = len(digest)
	}
	return Base64Encode(digest[:n])
}

// private func

var pkcs7 = padding.NewPKCS7Padding(sm4.BlockSize)

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != Sm4KeySize {
		return nil, errlist.ERR_SM4_KEY_SIZE
	}
	block, err := sm4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sm4 cipher: %w", err)
	}
	return block, nil
}
