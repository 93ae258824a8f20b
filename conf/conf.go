// Package conf provides configuration for securelog.
// 配置分两层：Manager 是 properties 属性袋（文件 + 程序内覆盖 + 默认值），
// Snapshot 是处理热路径使用的不可变解析结果。
package conf

import (
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/geekfrog/securelog-ecc/errlist"
)

// DefConfFile is the default properties file name.
const DefConfFile = "securelog-ecc.properties"

// configuration keys
const (
	KeyEccPublicKey          = "ecc.public.key"
	KeyCryptoProvider        = "ecc.crypto.provider"
	KeySm2CurveName          = "ecc.sm2.curve.name"
	KeySm2Transformation     = "ecc.sm2.cipher.transformation"
	KeySm4Transformation     = "ecc.sm4.cipher.transformation"
	KeySessionCacheSize      = "ecc.session.key.cache.size"
	KeySessionCacheBuffer    = "ecc.session.key.cache.buffer.percentage"
	KeySystemCacheSize       = "ecc.system.key.cache.size"
	KeySystemCacheBuffer     = "ecc.system.key.cache.buffer.percentage"
	KeySystemIDInterval      = "ecc.system.id.change.interval.minutes"
	KeyMdcSecureData         = "mdc.secure.data.key"
	KeyMdcTraceIDKeys        = "mdc.trace.id.keys"
	KeyMdcFingerprint        = "mdc.pub.key.fingerprint.key"
	KeySensitiveKeys         = "ecc.masking.sensitive.keys"
	KeyTokenLikeKeys         = "ecc.masking.tokenlike.keys"
	KeyQueryStringEnabled    = "ecc.masking.querystring.enabled"
	KeyFallbackEnabled       = "ecc.masking.fallback.enabled"
	KeyAddressRequireRegion  = "ecc.masking.address.require.region"
	KeyAddressRequireDetail  = "ecc.masking.address.require.detail"
	KeyAddressRegionKeywords = "ecc.masking.address.region.keywords"
	KeyAddressDetailKeywords = "ecc.masking.address.detail.keywords"
	KeyAddressExclude        = "ecc.masking.address.exclude.keywords"
	KeyHighEntropyEnabled    = "ecc.masking.high.entropy.enabled"
	KeyHighEntropyMixed      = "ecc.masking.high.entropy.require.upper.lower.digit"
	KeyTokenKeepPrefix       = "ecc.masking.token.keep.prefix"
	KeyTokenKeepSuffix       = "ecc.masking.token.keep.suffix"
	KeyMaxValueLength        = "ecc.masking.max.value.length"
	KeyHighEntropyMinLength  = "ecc.masking.high.entropy.min.length"
	KeyHighEntropyThreshold  = "ecc.masking.high.entropy.threshold"
)

// default values
const (
	DefCryptoProvider        = "gmsm"
	DefSm2CurveName          = "sm2p256v1"
	DefSm2Transformation     = "SM2"
	DefSm4Transformation     = "SM4/GCM/NoPadding"
	DefSessionCacheSize      = 30000
	DefSessionCacheBuffer    = 0.05
	DefSystemCacheSize       = 1000
	DefSystemCacheBuffer     = 0.10
	DefSystemIDInterval      = 15
	DefMdcSecureData         = "SECURE_DATA"
	DefMdcTraceIDKeys        = "trace_id,traceId,requestId,correlationId,X-Trace-Code,X-Trace-Id"
	DefMdcFingerprint        = "PUB_KEY_FINGERPRINT"
	DefSensitiveKeys         = "password,pwd,pass,token,access_token,clientSecret,secret,apiKey,idcard,cardNumber,jbrCardNumber,mobile,phone,tel,email,address"
	DefTokenLikeKeys         = "token,access_token,clientSecret,secret,apiKey,key,auth,credential"
	DefQueryStringEnabled    = true
	DefFallbackEnabled       = true
	DefAddressRequireRegion  = true
	DefAddressRequireDetail  = true
	DefAddressRegionKeywords = "省,市,区,县"
	DefAddressDetailKeywords = "街,路,道,巷,镇,乡,号,院,楼,室"
	DefAddressExclude        = ""
	DefHighEntropyEnabled    = true
	DefHighEntropyMixed      = true
	DefTokenKeepPrefix       = 4
	DefTokenKeepSuffix       = 4
	DefMaxValueLength        = 50
	DefHighEntropyMinLength  = 20
	DefHighEntropyThreshold  = 3.5
)

// MillisPerMinute is used for the system key time window.
const MillisPerMinute int64 = 60 * 1000

// Manager is the mutable property bag.
// 程序内 Set() 的值优先级最高，其次是配置文件，最后是默认值。
type Manager struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// public func

// NewManager creates a Manager holding only the compiled defaults.
func NewManager() *Manager {
	v := viper.New()
	v.SetConfigType("properties")
	applyDefaults(v)
	return &Manager{v: v}
}

// Load reads a properties file into the bag. path may be empty, then the
// default file name is searched in the working directory and ./resources.
// A missing file is not an error, defaults stay in effect.
// Values previously set with Set() keep the highest priority.
func (I *Manager) Load(path string) error {
	I.mu.Lock()
	defer I.mu.Unlock()
	if len(path) > 0 {
		I.v.SetConfigFile(path)
	} else {
		I.v.SetConfigName(strings.TrimSuffix(DefConfFile, ".properties"))
		I.v.SetConfigType("properties")
		I.v.AddConfigPath(".")
		I.v.AddConfigPath("./resources")
	}
	if err := I.v.ReadInConfig(); err != nil {
		if notFound(err) {
			return nil
		}
		return err
	}
	return nil
}

// Save writes the effective configuration to a properties file.
func (I *Manager) Save(path string) error {
	I.mu.Lock()
	defer I.mu.Unlock()
	return I.v.WriteConfigAs(path)
}

// Set overrides one property. Overrides survive a later Load().
func (I *Manager) Set(key, value string) {
	I.mu.Lock()
	defer I.mu.Unlock()
	I.v.Set(key, value)
}

// GetString returns the property value, def when unset.
func (I *Manager) GetString(key, def string) string {
	I.mu.RLock()
	defer I.mu.RUnlock()
	if !I.v.IsSet(key) {
		return def
	}
	return I.v.GetString(key)
}

// GetInt returns the int property value, def when unset or malformed.
func (I *Manager) GetInt(key string, def int) int {
	s := I.GetString(key, "")
	if len(s) == 0 {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

// GetBool returns the bool property value, def when unset or malformed.
func (I *Manager) GetBool(key string, def bool) bool {
	s := strings.TrimSpace(I.GetString(key, ""))
	if len(s) == 0 {
		return def
	}
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return b
	}
	return def
}

// GetFloat returns the float property value, def when unset or malformed.
func (I *Manager) GetFloat(key string, def float64) float64 {
	s := I.GetString(key, "")
	if len(s) == 0 {
		return def
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return def
}

// private func

func applyDefaults(v *viper.Viper) {
	v.SetDefault(KeyCryptoProvider, DefCryptoProvider)
	v.SetDefault(KeySm2CurveName, DefSm2CurveName)
	v.SetDefault(KeySm2Transformation, DefSm2Transformation)
	v.SetDefault(KeySm4Transformation, DefSm4Transformation)
	v.SetDefault(KeySystemIDInterval, DefSystemIDInterval)
	v.SetDefault(KeyMdcSecureData, DefMdcSecureData)
	v.SetDefault(KeyMdcTraceIDKeys, DefMdcTraceIDKeys)
	v.SetDefault(KeyMdcFingerprint, DefMdcFingerprint)
}

func notFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// explicit file path that does not exist
	return strings.Contains(err.Error(), "no such file")
}

// Snapshot is the immutable parsed configuration used on the hot path.
type Snapshot struct {
	PublicKeyBase64    string
	CryptoProvider     string
	Sm2Transformation  string
	Sm4Transformation  string
	Sm2CurveName       string
	SessionCacheSize   int
	SessionCacheBuffer float64
	SystemCacheSize    int
	SystemCacheBuffer  float64
	SystemIDInterval   int
	MdcSecureDataKey   string
	MdcFingerprintKey  string
	TraceIDKeys        []string

	sensitiveKeys map[string]bool
	tokenLikeKeys map[string]bool

	QueryStringEnabled   bool
	FallbackEnabled      bool
	AddressRequireRegion bool
	AddressRequireDetail bool
	AddressRegionWords   []string
	AddressDetailWords   []string
	AddressExcludeWords  []string
	HighEntropyEnabled   bool
	HighEntropyMixed     bool
	TokenKeepPrefix      int
	TokenKeepSuffix      int
	MaxValueLength       int
	HighEntropyMinLen    int
	HighEntropyThreshold float64
}

// NewSnapshot parses the bag into an immutable Snapshot.
// buffer 比例越界时收敛到 [0,1]，不报错。
func NewSnapshot(m *Manager) *Snapshot {
	s := &Snapshot{
		PublicKeyBase64:      strings.TrimSpace(m.GetString(KeyEccPublicKey, "")),
		CryptoProvider:       m.GetString(KeyCryptoProvider, DefCryptoProvider),
		Sm2Transformation:    m.GetString(KeySm2Transformation, DefSm2Transformation),
		Sm4Transformation:    m.GetString(KeySm4Transformation, DefSm4Transformation),
		Sm2CurveName:         m.GetString(KeySm2CurveName, DefSm2CurveName),
		SessionCacheSize:     m.GetInt(KeySessionCacheSize, DefSessionCacheSize),
		SessionCacheBuffer:   clamp01(m.GetFloat(KeySessionCacheBuffer, DefSessionCacheBuffer)),
		SystemCacheSize:      m.GetInt(KeySystemCacheSize, DefSystemCacheSize),
		SystemCacheBuffer:    clamp01(m.GetFloat(KeySystemCacheBuffer, DefSystemCacheBuffer)),
		SystemIDInterval:     m.GetInt(KeySystemIDInterval, DefSystemIDInterval),
		MdcSecureDataKey:     m.GetString(KeyMdcSecureData, DefMdcSecureData),
		MdcFingerprintKey:    m.GetString(KeyMdcFingerprint, DefMdcFingerprint),
		TraceIDKeys:          splitList(m.GetString(KeyMdcTraceIDKeys, DefMdcTraceIDKeys)),
		sensitiveKeys:        parseKeySet(m.GetString(KeySensitiveKeys, DefSensitiveKeys)),
		tokenLikeKeys:        parseKeySet(m.GetString(KeyTokenLikeKeys, DefTokenLikeKeys)),
		QueryStringEnabled:   m.GetBool(KeyQueryStringEnabled, DefQueryStringEnabled),
		FallbackEnabled:      m.GetBool(KeyFallbackEnabled, DefFallbackEnabled),
		AddressRequireRegion: m.GetBool(KeyAddressRequireRegion, DefAddressRequireRegion),
		AddressRequireDetail: m.GetBool(KeyAddressRequireDetail, DefAddressRequireDetail),
		AddressRegionWords:   splitList(m.GetString(KeyAddressRegionKeywords, DefAddressRegionKeywords)),
		AddressDetailWords:   splitList(m.GetString(KeyAddressDetailKeywords, DefAddressDetailKeywords)),
		AddressExcludeWords:  splitList(m.GetString(KeyAddressExclude, DefAddressExclude)),
		HighEntropyEnabled:   m.GetBool(KeyHighEntropyEnabled, DefHighEntropyEnabled),
		HighEntropyMixed:     m.GetBool(KeyHighEntropyMixed, DefHighEntropyMixed),
		TokenKeepPrefix:      m.GetInt(KeyTokenKeepPrefix, DefTokenKeepPrefix),
		TokenKeepSuffix:      m.GetInt(KeyTokenKeepSuffix, DefTokenKeepSuffix),
		MaxValueLength:       m.GetInt(KeyMaxValueLength, DefMaxValueLength),
		HighEntropyMinLen:    m.GetInt(KeyHighEntropyMinLength, DefHighEntropyMinLength),
		HighEntropyThreshold: m.GetFloat(KeyHighEntropyThreshold, DefHighEntropyThreshold),
	}
	return s
}

// Verify checks the snapshot before it is handed to the processor:
// fail fast on values that would break the key cache.
func (I *Snapshot) Verify() error {
	if I.SessionCacheSize <= 0 || I.SystemCacheSize <= 0 {
		return errlist.ERR_CACHE_SIZE_INVALID
	}
	if I.SystemIDInterval <= 0 {
		return errlist.ERR_CACHE_SIZE_INVALID
	}
	return nil
}

// IsSensitiveKey reports whether key belongs to the strong sensitive list.
// key 命中即脱敏并提取原值。
func (I *Snapshot) IsSensitiveKey(key string) bool {
	if len(key) == 0 {
		return false
	}
	k := strings.ToLower(strings.TrimSpace(key))
	return I.sensitiveKeys[k] || I.sensitiveKeys[strings.ReplaceAll(k, "_", "")]
}

// IsTokenLikeKey reports whether key narrows high entropy token detection.
func (I *Snapshot) IsTokenLikeKey(key string) bool {
	if len(key) == 0 {
		return false
	}
	k := strings.ToLower(strings.TrimSpace(key))
	return I.tokenLikeKeys[k] || I.tokenLikeKeys[strings.ReplaceAll(k, "_", "")]
}

// private func

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func splitList(s string) []string {
	out := make([]string, 0, 8)
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		p := strings.TrimSpace(part)
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func parseKeySet(s string) map[string]bool {
	set := make(map[string]bool, 32)
	for _, p := range splitList(s) {
		k := strings.ToLower(p)
		set[k] = true
		set[strings.ReplaceAll(k, "_", "")] = true
	}
	return set
}
