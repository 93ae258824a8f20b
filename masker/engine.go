package masker

import (
	"strings"

	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/detector"
	"github.com/geekfrog/securelog-ecc/mask"
)

// Result is the output of one masking pass.
// Masked keeps the original log format, only hit values are replaced.
// Extracted holds the original sensitive values keyed by path-like names.
type Result struct {
	Masked    string
	Extracted []Pair
}

// Engine is the structure aware masking engine.
// 每个 Engine 绑定一份配置快照，热路径上无锁无分配共享。
type Engine struct {
	cfg *conf.Snapshot
	det *detector.Detector
	msk *mask.Masker
}

// public func

// NewEngine builds an Engine for cfg.
func NewEngine(cfg *conf.Snapshot) *Engine {
	return &Engine{
		cfg: cfg,
		det: detector.NewDetector(cfg),
		msk: mask.NewMasker(cfg),
	}
}

// Mask runs the shape dispatch over one log record.
//
// 顺序:
//  1. JSON: 解析成功即终止（即使没有任何替换）
//  2. SQL Parameters: 有变化才终止
//  3. URL 内嵌 query: 有变化才终止
//  4. 纯 querystring: 形如 a=b&c=d 的整条文本
//  5. key/value 片段: 有变化才终止
//  6. 纯文本兜底: 身份证/手机号/邮箱/严格地址
func (I *Engine) Mask(message string) Result {
	collector := NewCollector()
	if len(message) == 0 {
		return Result{Masked: message, Extracted: collector.Pairs()}
	}

	trimmed := strings.TrimSpace(message)
	if looksLikeJSON(trimmed) {
		if masked, ok := I.tryMaskJSON(message, collector); ok {
			return Result{Masked: masked, Extracted: collector.Pairs()}
		}
	}

	if masked := I.MaskSQLParametersLine(message, collector); masked != message {
		return Result{Masked: masked, Extracted: collector.Pairs()}
	}

	if masked := I.MaskURLQueryInText(message, "query", collector); masked != message {
		return Result{Masked: masked, Extracted: collector.Pairs()}
	}

	if I.cfg.QueryStringEnabled && looksLikeBareQueryString(trimmed) {
		masked := I.MaskQueryString(message, "query", collector)
		return Result{Masked: masked, Extracted: collector.Pairs()}
	}

	if masked := I.MaskKeyValuePairs(message, collector); masked != message {
		return Result{Masked: masked, Extracted: collector.Pairs()}
	}

	masked := I.MaskPlainText(message, collector)
	return Result{Masked: masked, Extracted: collector.Pairs()}
}

// private func

// maskValueByKeyAndType is the shared leaf-value classifier:
// 敏感 key 优先，其次 token-like key + 高熵，再按值形态。
// changed reports whether the caller must treat the value as masked.
func (I *Engine) maskValueByKeyAndType(fullKey, key, value string, collector *Collector) (masked string, changed bool) {
	if I.det.IsEmptyLike(value) {
		return value, false
	}
	keyLower := strings.ToLower(key)
	if I.cfg.IsSensitiveKey(keyLower) {
		mv := I.maskBySensitiveKey(keyLower, value, true)
		if mv == value {
			return value, false
		}
		collector.Put(fullKey, value)
		return mv, true
	}
	if I.cfg.IsTokenLikeKey(keyLower) && I.det.LooksLikeHighEntropyToken(value) {
		collector.Put(fullKey, value)
		return I.msk.MaskToken(value), true
	}
	if I.det.IsIDCard(value) {
		collector.Put(fullKey, value)
		return I.msk.MaskIDCard(value), true
	}
	if I.det.IsPhoneOrTel(value) {
		collector.Put(fullKey, value)
		return I.msk.MaskPhone(value), true
	}
	if I.det.IsEmail(value) {
		collector.Put(fullKey, value)
		return I.msk.MaskEmail(value), true
	}
	if I.det.IsStrictAddress(value) {
		collector.Put(fullKey, value)
		return I.msk.MaskAddress(value), true
	}
	return value, false
}

// maskBySensitiveKey picks the formatter by key family.
// phoneGuard 为 true 时，phone 类 key 只有值确实像手机号才打码。
// 已带 *** 标记的值视为打码结果原样放行，重复脱敏不产生新的提取。
func (I *Engine) maskBySensitiveKey(keyLower, value string, phoneGuard bool) string {
	if strings.Contains(value, "***") {
		return value
	}
	if strings.Contains(keyLower, "password") || keyLower == "pwd" || keyLower == "pass" {
		return I.msk.MaskPassword(value)
	}
	if strings.Contains(keyLower, "token") || strings.Contains(keyLower, "secret") ||
		strings.Contains(keyLower, "apikey") || strings.Contains(keyLower, "clientsecret") || keyLower == "key" {
		return I.msk.MaskToken(value)
	}
	if strings.Contains(keyLower, "idcard") || strings.Contains(keyLower, "cardnumber") {
		return I.msk.MaskIDCard(value)
	}
	if strings.Contains(keyLower, "mobile") || strings.Contains(keyLower, "phone") || strings.Contains(keyLower, "tel") {
		if phoneGuard && !I.det.IsPhoneOrTel(value) {
			return value
		}
		return I.msk.MaskPhone(value)
	}
	if strings.Contains(keyLower, "email") {
		return I.msk.MaskEmail(value)
	}
	if strings.Contains(keyLower, "address") {
		if I.det.IsStrictAddress(value) {
			return I.msk.MaskAddress(value)
		}
		return value
	}
	return "***"
}

func looksLikeJSON(trimmed string) bool {
	if len(trimmed) == 0 {
		return false
	}
	c0, cLast := trimmed[0], trimmed[len(trimmed)-1]
	return (c0 == '{' && cLast == '}') || (c0 == '[' && cLast == ']')
}

// looksLikeBareQueryString is the engine level check: both = and & must be
// present, a lone k=v line goes down the key/value branch instead.
func looksLikeBareQueryString(trimmed string) bool {
	if strings.IndexByte(trimmed, '=') <= 0 {
		return false
	}
	return strings.IndexByte(trimmed, '&') >= 0
}
