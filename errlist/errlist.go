// Package errlist defines error list used in securelog
package errlist

import "errors"

var (
	ERR_PANIC               = errors.New("SecureLog.Panic, please report to admin")
	ERR_PUBLIC_KEY_EMPTY    = errors.New("SecureLog.PublicKeyEmpty: ecc.public.key is not configured")
	ERR_PUBLIC_KEY_DECODE   = errors.New("SecureLog.PublicKeyDecode: not a valid Base64 X.509 SM2 public key")
	ERR_PRIVATE_KEY_DECODE  = errors.New("SecureLog.PrivateKeyDecode: not a valid Base64 PKCS#8 SM2 private key")
	ERR_NOT_SM2_KEY         = errors.New("SecureLog.NotSm2Key: decoded key is not on the SM2 curve")
	ERR_SM4_KEY_SIZE        = errors.New("SecureLog.Sm4KeySize: SM4 key must be 16 bytes")
	ERR_MODE_NOT_SUPPORT    = errors.New("SecureLog.ModeNotSupport: unknown SM4 cipher mode")
	ERR_CIPHERTEXT_SHORT    = errors.New("SecureLog.CiphertextShort: ciphertext shorter than IV/tag")
	ERR_CACHE_SIZE_INVALID  = errors.New("SecureLog.CacheSizeInvalid: cache size must be > 0")
	ERR_SECURE_DATA_EMPTY   = errors.New("SecureLog.SecureDataEmpty: empty secure data")
	ERR_SECURE_DATA_SHORT   = errors.New("SecureLog.SecureDataShort: secure data shorter than header")
	ERR_SECURE_DATA_VERSION = errors.New("SecureLog.SecureDataVersion: unsupported envelope version")
	ERR_SECURE_DATA_LENGTH  = errors.New("SecureLog.SecureDataLength: envelope length fields are inconsistent")
)
