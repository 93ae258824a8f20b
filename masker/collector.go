// Package masker implements the structure aware masking engine.
// 引擎按 JSON → SQL Parameters → URL query → querystring → key/value → 兜底
// 的顺序尝试，第一个命中的分支决定输出，同时把原始敏感值交给 Collector。
package masker

import (
	"strconv"
	"strings"
	"unicode"
)

// Pair is one collected sensitive value.
type Pair struct {
	Key   string
	Value string
}

// Collector records original sensitive values in insertion order.
// key 规范化为小写、去引号、去空白；重复 key 依次追加数字后缀，绝不覆盖。
type Collector struct {
	pairs []Pair
	seen  map[string]bool
}

// public func

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]bool, 8)}
}

// Put records one sensitive value. Blank keys are ignored.
func (I *Collector) Put(key, value string) {
	k := normalizeKey(key)
	if len(k) == 0 {
		return
	}
	if !I.seen[k] {
		I.seen[k] = true
		I.pairs = append(I.pairs, Pair{Key: k, Value: value})
		return
	}
	for idx := 1; ; idx++ {
		candidate := k + strconv.Itoa(idx)
		if !I.seen[candidate] {
			I.seen[candidate] = true
			I.pairs = append(I.pairs, Pair{Key: candidate, Value: value})
			return
		}
	}
}

// Pairs returns the collected values in insertion order.
func (I *Collector) Pairs() []Pair {
	out := make([]Pair, len(I.pairs))
	copy(out, I.pairs)
	return out
}

// Len returns the number of collected values.
func (I *Collector) Len() int {
	return len(I.pairs)
}

// private func

func normalizeKey(key string) string {
	k := strings.TrimSpace(key)
	if len(k) == 0 {
		return ""
	}
	k = strings.ReplaceAll(k, `"`, "")
	k = strings.ReplaceAll(k, "`", "")
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
