package ecccore

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/emmansun/gmsm/smx509"
	"github.com/stretchr/testify/require"

	"github.com/geekfrog/securelog-ecc/errlist"
)

func TestGenerateAndDecodeKeyPair(t *testing.T) {
	pubB64, privB64, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NotEmpty(t, pubB64)
	require.NotEmpty(t, privB64)

	pub, err := DecodePublicKey(pubB64)
	require.NoError(t, err)
	priv, err := DecodePrivateKey(privB64)
	require.NoError(t, err)
	require.True(t, pub.Equal(&priv.PublicKey))
}

func TestSm2RoundTrip(t *testing.T) {
	pubB64, privB64, err := GenerateKeyPair()
	require.NoError(t, err)
	pub, err := DecodePublicKey(pubB64)
	require.NoError(t, err)
	priv, err := DecodePrivateKey(privB64)
	require.NoError(t, err)

	key, err := NewSm4Key()
	require.NoError(t, err)
	require.Len(t, key, Sm4KeySize)

	wrapped, err := Sm2Encrypt(key, pub)
	require.NoError(t, err)
	unwrapped, err := Sm2Decrypt(wrapped, priv)
	require.NoError(t, err)
	require.True(t, bytes.Equal(key, unwrapped))
}

func TestSm4RoundTripAllModes(t *testing.T) {
	key, err := NewSm4Key()
	require.NoError(t, err)
	plaintext := []byte(`{"password":"secret123","phone":"13812345678"}`)

	cases := []struct {
		mode   Mode
		ivSize int
	}{
		{ModeGCM, GCMIVSize},
		{ModeCBC, BlockIVSize},
		{ModeCTR, BlockIVSize},
		{ModeCFB, BlockIVSize},
		{ModeOFB, BlockIVSize},
		{ModeECB, 0},
	}
	for _, c := range cases {
		iv, ct, err := Sm4Encrypt(c.mode, key, plaintext)
		require.NoError(t, err, "mode %d", c.mode)
		require.Len(t, iv, c.ivSize, "mode %d", c.mode)
		out, err := Sm4Decrypt(c.mode, key, iv, ct)
		require.NoError(t, err, "mode %d", c.mode)
		require.True(t, bytes.Equal(plaintext, out), "mode %d", c.mode)
	}
}

func TestSm4GCMTamperDetected(t *testing.T) {
	key, err := NewSm4Key()
	require.NoError(t, err)
	iv, ct, err := Sm4Encrypt(ModeGCM, key, []byte("data"))
	require.NoError(t, err)
	ct[0] ^= 0x01
	_, err = Sm4Decrypt(ModeGCM, key, iv, ct)
	require.Error(t, err)
}

func TestSm4KeySizeValidation(t *testing.T) {
	_, _, err := Sm4Encrypt(ModeGCM, []byte("short"), []byte("data"))
	require.Equal(t, errlist.ERR_SM4_KEY_SIZE, err)
}

func TestParseSm4Mode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"SM4/GCM/NoPadding", ModeGCM},
		{"sm4/gcm/nopadding", ModeGCM},
		{"SM4/CBC/PKCS7Padding", ModeCBC},
		{"SM4/CTR/NoPadding", ModeCTR},
		{"SM4/CFB/NoPadding", ModeCFB},
		{"SM4/OFB/NoPadding", ModeOFB},
		{"SM4/ECB/PKCS7Padding", ModeECB},
		{"SM4", ModeECB},
	}
	for _, c := range cases {
		mode, err := ParseSm4Mode(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, mode, c.in)
	}
	_, err := ParseSm4Mode("AES/GCM/NoPadding")
	require.NoError(t, err) // mode 串只看分组模式，算法名不校验
	_, err = ParseSm4Mode("SM4/XTS/NoPadding")
	require.Equal(t, errlist.ERR_MODE_NOT_SUPPORT, err)
}

func TestDecodePublicKeyRejectsNonSm2(t *testing.T) {
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := smx509.MarshalPKIXPublicKey(&k.PublicKey)
	require.NoError(t, err)
	_, err = DecodePublicKey(Base64Encode(der))
	require.Equal(t, errlist.ERR_NOT_SM2_KEY, err)
}

func TestDecodePublicKeyBadInput(t *testing.T) {
	_, err := DecodePublicKey("!!!not-base64!!!")
	require.Error(t, err)
	_, err = DecodePublicKey(Base64Encode([]byte("not der")))
	require.Error(t, err)
}

func TestPublicKeyFingerprint(t *testing.T) {
	pubB64, _, err := GenerateKeyPair()
	require.NoError(t, err)

	fp := PublicKeyFingerprint(pubB64)
	require.NotEmpty(t, fp)
	require.Equal(t, fp, PublicKeyFingerprint(pubB64))
	// 20 字节指纹的 Base64 长度固定
	require.Len(t, fp, 28)

	require.Empty(t, PublicKeyFingerprint(""))
	require.Empty(t, PublicKeyFingerprint("   "))
	require.Empty(t, PublicKeyFingerprint("!!!not-base64!!!"))

	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NotEqual(t, fp, PublicKeyFingerprint(otherPub))
}
