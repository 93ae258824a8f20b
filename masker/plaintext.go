package masker

import (
	"sort"
	"unicode/utf8"
)

// public func

// MaskPlainText is the last resort scan over free text. Only id cards,
// mobiles, emails and strict addresses are covered, there is no bare high
// entropy scan here.
// 兜底阶段提取 key 使用固定名：idcard/mobile/email/address。
func (I *Engine) MaskPlainText(message string, collector *Collector) string {
	if !I.cfg.FallbackEnabled || len(message) == 0 {
		return message
	}
	var reps []replacement
	reps = I.collectFallback(reps, collector, message, I.det.FindIDCards(message), "idcard", I.msk.MaskIDCard)
	reps = I.collectFallback(reps, collector, message, I.det.FindMobiles(message), "mobile", I.msk.MaskPhone)
	reps = I.collectFallback(reps, collector, message, I.det.FindEmails(message), "email", I.msk.MaskEmail)
	reps = I.collectFallback(reps, collector, message, I.det.FindAddressCandidates(message), "address", I.msk.MaskAddress)
	if len(reps) == 0 {
		return message
	}
	sort.Slice(reps, func(a, b int) bool { return reps[a].start > reps[b].start })
	out := message
	for _, r := range reps {
		out = out[:r.start] + r.text + out[r.end:]
	}
	return out
}

// private func

func (I *Engine) collectFallback(reps []replacement, collector *Collector, message string, ranges [][2]int, key string, maskFn func(string) string) []replacement {
	for _, rg := range ranges {
		value := message[rg[0]:rg[1]]
		if I.det.IsEmptyLike(value) {
			continue
		}
		if utf8.RuneCountInString(value) > I.cfg.MaxValueLength {
			continue
		}
		// address candidates are regex-shaped only, the strict two stage
		// gate decides whether they really are addresses
		if key == "address" && !I.det.IsStrictAddress(value) {
			continue
		}
		collector.Put(key, value)
		reps = append(reps, replacement{start: rg[0], end: rg[1], text: maskFn(value)})
	}
	return reps
}
