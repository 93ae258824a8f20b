// Package mask implements the masking algorithms of securelog.
// 掩码只负责“怎么打码”，识别逻辑在 detector 包。
// All length decisions count runes, not bytes, masked text stays printable.
package mask

import (
	"strings"
	"unicode"

	"github.com/geekfrog/securelog-ecc/conf"
)

// Masker holds the formatting parameters for one configuration snapshot.
type Masker struct {
	cfg *conf.Snapshot
}

// public func

// NewMasker creates a Masker for cfg.
func NewMasker(cfg *conf.Snapshot) *Masker {
	return &Masker{cfg: cfg}
}

// MaskIDCard keeps the first 6 and last 4 chars: 110225********6127.
// 过短的值整体置为 ***，避免暴露长度信息。
func (I *Masker) MaskIDCard(idCard string) string {
	v := []rune(strings.TrimSpace(idCard))
	if len(v) < 10 {
		return "***"
	}
	p := 6
	if p > len(v) {
		p = len(v)
	}
	return string(v[:p]) + "********" + string(v[len(v)-4:])
}

// MaskPhone keeps the segment prefix and the last 4 digits: 186****1234.
func (I *Masker) MaskPhone(phone string) string {
	p := []rune(strings.TrimSpace(phone))
	if len(p) < 7 {
		return "***"
	}
	digits := make([]rune, 0, len(p))
	for _, r := range p {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < 7 {
		return "***"
	}
	if len(digits) >= 11 && digits[0] == '1' {
		return string(digits[:3]) + "****" + string(digits[len(digits)-4:])
	}
	if len(digits) >= 10 && digits[0] == '0' {
		return string(digits[:3]) + "****" + string(digits[len(digits)-4:])
	}
	head := 2
	if head > len(p) {
		head = len(p)
	}
	return string(p[:head]) + "***" + string(p[len(p)-2:])
}

// MaskEmail keeps the first and last char of the local part: a***d@x.com.
func (I *Masker) MaskEmail(email string) string {
	e := strings.TrimSpace(email)
	at := strings.IndexByte(e, '@')
	if at <= 0 || at >= len(e)-1 {
		return "***"
	}
	local := []rune(e[:at])
	domain := e[at:]
	if len(local) <= 2 {
		return string(local[:1]) + "***" + domain
	}
	return string(local[:1]) + "***" + string(local[len(local)-1:]) + domain
}

// MaskAddress keeps the first 2 and last 2 chars: 北京***43号.
func (I *Masker) MaskAddress(address string) string {
	a := []rune(strings.TrimSpace(address))
	if len(a) <= 4 {
		return "***"
	}
	return string(a[:2]) + "***" + string(a[len(a)-2:])
}

// MaskPassword hides the value completely.
func (I *Masker) MaskPassword(string) string {
	return "***"
}

// MaskToken keeps a configured prefix and suffix so operators can still
// correlate tokens: eyJh***Q5fQ.
func (I *Masker) MaskToken(token string) string {
	t := []rune(strings.TrimSpace(token))
	if len(t) == 0 {
		return "***"
	}
	keepP, keepS := I.cfg.TokenKeepPrefix, I.cfg.TokenKeepSuffix
	if len(t) <= keepP+keepS {
		return "***"
	}
	if keepP > len(t) {
		keepP = len(t)
	}
	start := len(t) - keepS
	if start < 0 {
		start = 0
	}
	return string(t[:keepP]) + "***" + string(t[start:])
}
