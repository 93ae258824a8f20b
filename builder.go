package securelog

import (
	"crypto/ecdsa"

	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/ecccore"
	"github.com/geekfrog/securelog-ecc/keycache"
)

// SecureDataVersion is the envelope version byte.
const SecureDataVersion = 2

// secureDataHeaderSize = version(1) + sm2KeyLen(4) + ivLen(1)
const secureDataHeaderSize = 1 + 4 + 1

// Builder assembles SECURE_DATA envelopes:
// 取缓存的 SM4 密钥加密敏感数据，SM2 公钥封装 SM4 密钥，拼装后 Base64。
//
// Envelope layout after Base64 decode:
//
//	[version(1)][sm2KeyLen(4)][ivLen(1)][sm2EncryptedKey][iv][sm4Ciphertext]
type Builder struct {
	keys     *keycache.Manager
	mode     ecccore.Mode
	pub      *ecdsa.PublicKey
	interval int
}

// public func

// NewBuilder creates a Builder from cfg. The public key must be set and
// parse as an SM2 key, the SM4 transformation must be a supported mode.
func NewBuilder(cfg *conf.Snapshot) (*Builder, error) {
	pub, err := ecccore.DecodePublicKey(cfg.PublicKeyBase64)
	if err != nil {
		return nil, err
	}
	mode, err := ecccore.ParseSm4Mode(cfg.Sm4Transformation)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		mode:     mode,
		pub:      pub,
		interval: cfg.SystemIDInterval,
	}
	b.keys = keycache.NewManager(cfg, b.newWrappedKey)
	return b, nil
}

// BuildForTrace encrypts sensitiveData under the session key of traceID.
// 同一 trace 的多条日志共享一把 SM4 密钥，审计侧只需解一次密钥。
func (I *Builder) BuildForTrace(sensitiveData, traceID string) (string, error) {
	info, err := I.keys.SessionKey(traceID)
	if err != nil {
		return "", err
	}
	return I.build(info, sensitiveData)
}

// BuildForSystem encrypts sensitiveData under the current time window key.
func (I *Builder) BuildForSystem(sensitiveData string) (string, error) {
	info, err := I.keys.SystemKey(keycache.SystemWindowID(I.interval))
	if err != nil {
		return "", err
	}
	return I.build(info, sensitiveData)
}

// Keys exposes the cache manager for the admin API.
func (I *Builder) Keys() *keycache.Manager {
	return I.keys
}

// private func

func (I *Builder) newWrappedKey() (sm4Key, sm2Wrapped []byte, err error) {
	key, err := ecccore.NewSm4Key()
	if err != nil {
		return nil, nil, err
	}
	wrapped, err := ecccore.Sm2Encrypt(key, I.pub)
	if err != nil {
		return nil, nil, err
	}
	return key, wrapped, nil
}

func (I *Builder) build(info *keycache.KeyInfo, sensitiveData string) (string, error) {
	iv, ciphertext, err := ecccore.Sm4Encrypt(I.mode, info.Sm4Key, []byte(sensitiveData))
	if err != nil {
		return "", err
	}
	return packSecureData(info.Sm2EncryptedKey, iv, ciphertext), nil
}

func packSecureData(encryptedKey, iv, ciphertext []byte) string {
	combined := make([]byte, 0, secureDataHeaderSize+len(encryptedKey)+len(iv)+len(ciphertext))
	combined = append(combined, SecureDataVersion)
	keyLen := len(encryptedKey)
	combined = append(combined,
		byte(keyLen>>24), byte(keyLen>>16), byte(keyLen>>8), byte(keyLen))
	combined = append(combined, byte(len(iv)))
	combined = append(combined, encryptedKey...)
	combined = append(combined, iv...)
	combined = append(combined, ciphertext...)
	return ecccore.Base64Encode(combined)
}
