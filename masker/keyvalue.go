package masker

import (
	"regexp"
	"strings"
)

// key 最长 64 字符；value 三种形态：双引号、单引号、裸词（到分隔符为止）。
// 全角冒号与全角逗号也算分隔。
var keyValuePattern = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_]{0,63})\b\s*[:=：]\s*("([^"]*)"|'([^']*)'|([^,，\s}\])"']+))`)

// public func

// MaskKeyValuePairs masks "password=xxx" / "token: abc" fragments inside
// plain log text. Only sensitive keys (and the implicit password family)
// are touched, everything else stays verbatim.
func (I *Engine) MaskKeyValuePairs(message string, collector *Collector) string {
	if len(message) == 0 {
		return message
	}
	var sb strings.Builder
	sb.Grow(len(message))
	last := 0
	changed := false
	for _, m := range keyValuePattern.FindAllStringSubmatchIndex(message, -1) {
		key := message[m[2]:m[3]]
		keyLower := strings.ToLower(key)
		if !I.cfg.IsSensitiveKey(keyLower) && !isImplicitSensitiveKey(keyLower) {
			continue
		}
		vs, ve := valueGroupRange(m)
		if vs < 0 {
			continue
		}
		value := message[vs:ve]
		if I.det.IsEmptyLike(value) {
			continue
		}
		masked := I.maskBySensitiveKey(keyLower, value, true)
		if masked == value {
			continue
		}
		collector.Put(keyLower, value)
		sb.WriteString(message[last:vs])
		sb.WriteString(masked)
		last = ve
		changed = true
	}
	if !changed {
		return message
	}
	sb.WriteString(message[last:])
	return sb.String()
}

// private func

func isImplicitSensitiveKey(keyLower string) bool {
	return strings.Contains(keyLower, "password") || keyLower == "pwd" || keyLower == "pass"
}

// valueGroupRange picks the innermost matched value group:
// 3 double quoted, 4 single quoted, 5 bare word.
func valueGroupRange(m []int) (int, int) {
	for _, g := range []int{3, 4, 5} {
		if 2*g+1 < len(m) && m[2*g] >= 0 {
			return m[2*g], m[2*g+1]
		}
	}
	return -1, -1
}
