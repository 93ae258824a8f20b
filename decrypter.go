package securelog

import (
	"fmt"
	"strings"

	"github.com/emmansun/gmsm/sm2"

	"github.com/geekfrog/securelog-ecc/ecccore"
	"github.com/geekfrog/securelog-ecc/errlist"
)

// ParsedSecureData is a decoded envelope before any decryption.
type ParsedSecureData struct {
	EncryptedKey []byte // SM2 ciphertext of the SM4 key
	IV           []byte // empty for ECB
	Ciphertext   []byte // SM4 ciphertext, GCM tag appended in GCM mode
}

// public func

// ParseSecureData decodes and validates the envelope header.
func ParseSecureData(secureData string) (*ParsedSecureData, error) {
	if len(strings.TrimSpace(secureData)) == 0 {
		return nil, errlist.ERR_SECURE_DATA_EMPTY
	}
	combined, err := ecccore.Base64Decode(strings.TrimSpace(secureData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errlist.ERR_SECURE_DATA_EMPTY, err)
	}
	if len(combined) < secureDataHeaderSize {
		return nil, errlist.ERR_SECURE_DATA_SHORT
	}
	if combined[0] != SecureDataVersion {
		return nil, fmt.Errorf("%w: %d", errlist.ERR_SECURE_DATA_VERSION, combined[0])
	}
	keySize := int(combined[1])<<24 | int(combined[2])<<16 | int(combined[3])<<8 | int(combined[4])
	ivLen := int(combined[5])
	offset := secureDataHeaderSize
	if keySize < 0 || len(combined) < offset+keySize+ivLen {
		return nil, fmt.Errorf("%w: keySize=%d ivLen=%d", errlist.ERR_SECURE_DATA_LENGTH, keySize, ivLen)
	}
	parsed := &ParsedSecureData{
		EncryptedKey: combined[offset : offset+keySize],
		IV:           combined[offset+keySize : offset+keySize+ivLen],
		Ciphertext:   combined[offset+keySize+ivLen:],
	}
	return parsed, nil
}

// DecryptSecureData recovers the sensitive data JSON from an envelope.
// transformation selects the SM4 mode, it must match the producing side.
// 离线排障/审计回溯入口，不依赖 Processor。
func DecryptSecureData(secureData string, priv *sm2.PrivateKey, transformation string) (string, error) {
	mode, err := ecccore.ParseSm4Mode(transformation)
	if err != nil {
		return "", err
	}
	parsed, err := ParseSecureData(secureData)
	if err != nil {
		return "", err
	}
	sm4Key, err := ecccore.Sm2Decrypt(parsed.EncryptedKey, priv)
	if err != nil {
		return "", err
	}
	plain, err := ecccore.Sm4Decrypt(mode, sm4Key, parsed.IV, parsed.Ciphertext)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// DecryptSecureDataBase64 is DecryptSecureData with a Base64 PKCS#8 key.
func DecryptSecureDataBase64(secureData, base64PrivateKey, transformation string) (string, error) {
	priv, err := ecccore.DecodePrivateKey(base64PrivateKey)
	if err != nil {
		return "", err
	}
	return DecryptSecureData(secureData, priv, transformation)
}
