package masker

import (
	"strconv"
	"strings"
)

const sqlParametersMark = "Parameters:"

// public func

// MaskSQLParametersLine masks MyBatis style parameter logs:
// "... Parameters: 13812345678(String), 42(Integer)".
// 只处理 (String) 参数，未打码过的 String 参数一律提取原值，
// 形态未识别也用 *** 兜底。
func (I *Engine) MaskSQLParametersLine(message string, collector *Collector) string {
	if len(message) == 0 {
		return message
	}
	idx := indexOfIgnoreCase(message, sqlParametersMark)
	if idx < 0 {
		return message
	}
	start := idx + len(sqlParametersMark)
	if start >= len(message) {
		return message
	}
	prefix := message[:start]
	parts := splitParametersList(message[start:])
	if len(parts) == 0 {
		return message
	}

	maskedParts := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		lpar := strings.LastIndexByte(part, '(')
		rpar := -1
		if strings.HasSuffix(part, ")") {
			rpar = len(part) - 1
		}
		if lpar > 0 && rpar > lpar {
			value := strings.TrimSpace(part[:lpar])
			typ := strings.TrimSpace(part[lpar+1 : rpar])
			if strings.EqualFold(typ, "String") {
				pathKey := "sqlParameters[" + strconv.Itoa(i) + "]"
				maskedParts = append(maskedParts, I.maskSQLStringValue(value, pathKey, collector)+"("+typ+")")
				continue
			}
		}
		maskedParts = append(maskedParts, part)
	}
	return prefix + " " + strings.Join(maskedParts, ", ")
}

// private func

func (I *Engine) maskSQLStringValue(value, pathKey string, collector *Collector) string {
	if len(value) == 0 || I.det.IsEmptyLike(value) {
		return value
	}
	// 已打码的参数值不再兜底为 ***，也不再提取
	if strings.Contains(value, "***") {
		return value
	}
	collector.Put(pathKey, value)
	if I.det.IsIDCard(value) {
		return I.msk.MaskIDCard(value)
	}
	if I.det.IsPhoneOrTel(value) {
		return I.msk.MaskPhone(value)
	}
	if I.det.IsEmail(value) {
		return I.msk.MaskEmail(value)
	}
	if I.det.IsStrictAddress(value) {
		return I.msk.MaskAddress(value)
	}
	return "***"
}

func indexOfIgnoreCase(s, needle string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(needle))
}

// splitParametersList splits on commas outside parentheses, values like
// "to_char(...)(String)" stay in one piece.
func splitParametersList(s string) []string {
	parts := make([]string, 0, 8)
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '(':
			depth++
			sb.WriteByte(ch)
		case ')':
			if depth > 0 {
				depth--
			}
			sb.WriteByte(ch)
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(sb.String()); len(part) > 0 {
					parts = append(parts, part)
				}
				sb.Reset()
				continue
			}
			sb.WriteByte(ch)
		default:
			sb.WriteByte(ch)
		}
	}
	if tail := strings.TrimSpace(sb.String()); len(tail) > 0 {
		parts = append(parts, tail)
	}
	return parts
}
