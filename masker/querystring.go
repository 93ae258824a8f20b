package masker

import (
	"strings"
	"unicode"
)

// public func

// MaskQueryString masks a "a=b&c=d" shaped string item by item.
// 形如 token=xxx&type=1 的文本按 & 切分，逐项按 key/值形态脱敏后拼回。
// Fragments without '=' right after a sensitive key are treated as value
// continuation (tokens may legally contain '&') and absorbed into it.
func (I *Engine) MaskQueryString(queryString, keyPrefix string, collector *Collector) string {
	if len(queryString) == 0 || !I.looksLikeQueryStringValue(queryString) {
		return queryString
	}
	parts := strings.Split(queryString, "&")
	masked := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			masked = append(masked, part)
			continue
		}
		k := part[:eq]
		v := part[eq+1:]
		fullKey := k
		if len(keyPrefix) > 0 {
			fullKey = keyPrefix + "." + k
		}

		keyLower := strings.ToLower(k)
		sensitiveContext := I.cfg.IsSensitiveKey(keyLower) || I.cfg.IsTokenLikeKey(keyLower) ||
			strings.Contains(keyLower, "password") || keyLower == "pwd" || keyLower == "pass"

		j := i + 1
		var continuation []string
		if sensitiveContext {
			for j < len(parts) && len(parts[j]) > 0 && strings.IndexByte(parts[j], '=') <= 0 {
				continuation = append(continuation, parts[j])
				j++
			}
		}

		originalValue := v
		if len(continuation) > 0 {
			originalValue = originalValue + "&" + strings.Join(continuation, "&")
		}

		mv, changed := I.maskValueByKeyAndType(fullKey, k, originalValue, collector)
		if !changed {
			// untouched pair goes back verbatim, absorbed fragments stay
			// where they were
			masked = append(masked, part)
			continue
		}
		masked = append(masked, k+"="+mv)

		if len(continuation) > 0 {
			for range continuation {
				masked = append(masked, "***")
			}
			i = j - 1
		}
	}
	return strings.Join(masked, "&")
}

// MaskURLQueryInText masks the query part of a URL embedded in free text:
// "GET /a?token=xx&b=1 done" → only the segment between '?' and the first
// whitespace or '#' is touched.
func (I *Engine) MaskURLQueryInText(message, keyPrefix string, collector *Collector) string {
	if len(message) == 0 {
		return message
	}
	q := strings.IndexByte(message, '?')
	if q < 0 || q+1 >= len(message) {
		return message
	}
	end := findQueryEnd(message, q+1)
	if end <= q+1 {
		return message
	}
	query := message[q+1 : end]
	if !I.looksLikeQueryStringValue(query) {
		return message
	}
	maskedQuery := I.MaskQueryString(query, keyPrefix, collector)
	if maskedQuery == query {
		return message
	}
	return message[:q+1] + maskedQuery + message[end:]
}

// private func

// looksLikeQueryStringValue is the masker level check, looser than the
// engine dispatch: a single k=v is accepted as long as it cannot be JSON.
func (I *Engine) looksLikeQueryStringValue(s string) bool {
	if !I.cfg.QueryStringEnabled {
		return false
	}
	if strings.IndexByte(s, '=') <= 0 {
		return false
	}
	if strings.IndexByte(s, '&') >= 0 {
		return true
	}
	if strings.IndexByte(s, '{') >= 0 || strings.IndexByte(s, ':') >= 0 {
		return false
	}
	return true
}

func findQueryEnd(s string, start int) int {
	end := len(s)
	if hash := strings.IndexByte(s[start:], '#'); hash >= 0 {
		end = start + hash
	}
	for i, r := range s[start:end] {
		if unicode.IsSpace(r) {
			return start + i
		}
	}
	return end
}
