package masker

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// 嵌套 JSON 字符串最多递归两层，防止日志里套日志导致的深递归。
const maxEmbeddedJSONDepth = 2

type replacement struct {
	start int
	end   int
	text  string
}

type pathFrame struct {
	name    string
	isArray bool
	index   int
	// expectKey tracks object parse state, Decoder.Token does not tell keys
	// from string values by itself.
	expectKey bool
}

// public func

// tryMaskJSON parses message as one JSON document and masks string leaves
// in place. ok is false when message is not valid standalone JSON, the
// engine then continues with the other branches.
func (I *Engine) tryMaskJSON(message string, collector *Collector) (masked string, ok bool) {
	return I.maskJSONInternal(message, collector, "", 0)
}

// private func

func (I *Engine) maskJSONInternal(doc string, collector *Collector, prefix string, depth int) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var reps []replacement
	var stack []pathFrame
	currentField := ""
	hasField := false
	rootDone := false

	for {
		prevOff := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return doc, false
		}
		if rootDone {
			// trailing content after the root value, not standalone JSON
			return doc, false
		}

		if d, isDelim := tok.(json.Delim); isDelim {
			switch d {
			case '{', '[':
				if !hasField {
					incrementArrayIndex(stack)
				}
				stack = append(stack, pathFrame{
					name:      currentField,
					isArray:   d == '[',
					index:     -1,
					expectKey: d == '{',
				})
				currentField, hasField = "", false
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				if len(stack) == 0 {
					rootDone = true
				} else if !stack[len(stack)-1].isArray {
					stack[len(stack)-1].expectKey = true
				}
			}
			continue
		}

		// object keys come through as plain string tokens
		if len(stack) > 0 && !stack[len(stack)-1].isArray && stack[len(stack)-1].expectKey {
			if s, isStr := tok.(string); isStr {
				currentField, hasField = s, true
				stack[len(stack)-1].expectKey = false
				continue
			}
			return doc, false
		}

		// scalar value
		incrementArrayIndex(stack)
		fieldForValue, fieldKnown := currentField, hasField
		currentField, hasField = "", false
		if len(stack) > 0 && !stack[len(stack)-1].isArray {
			stack[len(stack)-1].expectKey = true
		}
		if len(stack) == 0 {
			rootDone = true
		}

		// 数组直接元素没有字段名，不做值脱敏（与路径语义保持一致）
		if !fieldKnown {
			continue
		}
		value, isStr := tok.(string)
		if !isStr {
			continue
		}

		start, end := stringTokenRange(doc, int(prevOff))
		if start < 0 || end <= start || end > len(doc) {
			continue
		}
		fullPath := buildPath(prefix, stack, fieldForValue)
		maskedValue := I.maskJSONStringValue(fullPath, fieldForValue, value, collector, depth)
		if maskedValue != value {
			reps = append(reps, replacement{start: start, end: end, text: `"` + escapeJSONString(maskedValue) + `"`})
		}
	}

	if len(reps) == 0 {
		return doc, true
	}
	sort.Slice(reps, func(a, b int) bool { return reps[a].start > reps[b].start })
	out := doc
	for _, r := range reps {
		out = out[:r.start] + r.text + out[r.end:]
	}
	return out, true
}

// maskJSONStringValue classifies one JSON string leaf. Unlike the query
// string path, a sensitive key collects only when the mask really changed
// the value, and phone keys mask unconditionally.
func (I *Engine) maskJSONStringValue(fullPath, fieldName, value string, collector *Collector, depth int) string {
	if I.det.IsEmptyLike(value) {
		return value
	}
	keyLower := strings.ToLower(fieldName)

	if I.cfg.IsSensitiveKey(keyLower) {
		masked := I.maskBySensitiveKey(keyLower, value, false)
		if masked != value {
			collector.Put(fullPath, value)
		}
		return masked
	}
	if I.cfg.IsTokenLikeKey(keyLower) && I.det.LooksLikeHighEntropyToken(value) {
		collector.Put(fullPath, value)
		return I.msk.MaskToken(value)
	}
	if I.det.IsIDCard(value) {
		collector.Put(fullPath, value)
		return I.msk.MaskIDCard(value)
	}
	if I.det.IsPhoneOrTel(value) {
		collector.Put(fullPath, value)
		return I.msk.MaskPhone(value)
	}
	if I.det.IsEmail(value) {
		collector.Put(fullPath, value)
		return I.msk.MaskEmail(value)
	}
	if I.det.IsStrictAddress(value) {
		collector.Put(fullPath, value)
		return I.msk.MaskAddress(value)
	}

	out := I.MaskQueryString(value, fullPath, collector)

	if depth < maxEmbeddedJSONDepth {
		trimmed := strings.TrimSpace(out)
		if looksLikeJSON(trimmed) {
			if inner, ok := I.maskJSONInternal(out, collector, fullPath, depth+1); ok {
				out = inner
			}
		}
	}
	return out
}

func incrementArrayIndex(stack []pathFrame) {
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	if top.isArray {
		top.index++
	}
}

// buildPath renders "prefix.a.b[2].c" from the frame stack.
func buildPath(prefix string, stack []pathFrame, fieldName string) string {
	var sb strings.Builder
	sb.Grow(64)
	sb.WriteString(prefix)
	for _, f := range stack {
		if len(f.name) > 0 {
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(f.name)
		}
		if f.isArray {
			idx := f.index
			if idx < 0 {
				idx = 0
			}
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(idx))
			sb.WriteByte(']')
		}
	}
	if len(fieldName) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(fieldName)
	}
	return sb.String()
}

// stringTokenRange locates the quoted string token that starts at or after
// from, honoring backslash escapes. Returns [start,end) including quotes.
func stringTokenRange(doc string, from int) (int, int) {
	if from < 0 || from >= len(doc) {
		return -1, -1
	}
	i := from
	for i < len(doc) && doc[i] != '"' {
		i++
	}
	if i >= len(doc) {
		return -1, -1
	}
	start := i
	i++
	escaped := false
	for ; i < len(doc); i++ {
		c := doc[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			return start, i + 1
		}
	}
	return -1, -1
}

func escapeJSONString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
