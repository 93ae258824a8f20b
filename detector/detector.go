// Package detector recognizes sensitive value shapes.
// 按“值形态”识别：身份证、手机号/座机、邮箱、严格地址、高熵 token。
// Regexes are compiled once per Detector. Go regexp has no lookaround, the
// boundary assertions of find-mode patterns are verified on the bytes around
// each match instead.
package detector

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/geekfrog/securelog-ecc/conf"
)

const (
	idCardBody = `[1-9][0-9]{5}(?:19|20)[0-9]{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12][0-9]|3[01])[0-9]{3}[0-9Xx]`
	mobileBody = `(?:\+?86[-\s]?)?(1[0-9]{10})`
	emailBody  = `(?i)[A-Z0-9._%+-]{1,64}@[A-Z0-9.-]{1,255}\.[A-Z]{2,}`
)

// Detector holds the compiled recognizers for one configuration snapshot.
type Detector struct {
	cfg *conf.Snapshot

	idCardFull *regexp.Regexp
	mobileFull *regexp.Regexp
	emailFull  *regexp.Regexp

	idCardFind *regexp.Regexp
	mobileFind *regexp.Regexp
	emailFind  *regexp.Regexp

	addressRegion    *regexp.Regexp // nil when no region keywords configured
	addressDetail    *regexp.Regexp // nil when no detail keywords configured
	addressExclude   *regexp.Regexp // nil when no exclude keywords configured
	addressCandidate *regexp.Regexp // nil when no region keywords configured
}

// public func

// NewDetector compiles the recognizers for cfg.
func NewDetector(cfg *conf.Snapshot) *Detector {
	d := &Detector{
		cfg:        cfg,
		idCardFull: regexp.MustCompile(`^` + idCardBody + `$`),
		mobileFull: regexp.MustCompile(`^` + mobileBody + `$`),
		emailFull:  regexp.MustCompile(`^(?i)[A-Z0-9._%+-]{1,64}@[A-Z0-9.-]{1,255}\.[A-Z]{2,}$`),
		idCardFind: regexp.MustCompile(idCardBody),
		mobileFind: regexp.MustCompile(mobileBody),
		emailFind:  regexp.MustCompile(emailBody),
	}
	if alt := keywordAlternation(cfg.AddressRegionWords); len(alt) > 0 {
		d.addressRegion = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,}(?:` + alt + `)`)
		d.addressCandidate = regexp.MustCompile(`[\x{4e00}-\x{9fa5}0-9\-#]{2,120}(?:` + alt + `)[\x{4e00}-\x{9fa5}0-9\-#]{0,120}`)
	}
	if alt := keywordAlternation(cfg.AddressDetailWords); len(alt) > 0 {
		d.addressDetail = regexp.MustCompile(`(?:` + alt + `)`)
	}
	if alt := keywordAlternation(cfg.AddressExcludeWords); len(alt) > 0 {
		d.addressExclude = regexp.MustCompile(`(?:` + alt + `)`)
	}
	return d
}

// IsEmptyLike reports whether value carries no data: empty, blank or the
// literal "null". Such values are never masked nor collected.
func (I *Detector) IsEmptyLike(value string) bool {
	v := strings.TrimSpace(value)
	if len(v) == 0 {
		return true
	}
	return strings.EqualFold(v, "null")
}

// IsIDCard reports whether value is exactly one CN resident id number.
func (I *Detector) IsIDCard(value string) bool {
	v, ok := I.usableValue(value)
	return ok && I.idCardFull.MatchString(v)
}

// IsEmail reports whether value is exactly one email address.
func (I *Detector) IsEmail(value string) bool {
	v, ok := I.usableValue(value)
	return ok && I.emailFull.MatchString(v)
}

// IsPhoneOrTel reports whether value is exactly one CN mobile number,
// optionally with a +86 prefix.
func (I *Detector) IsPhoneOrTel(value string) bool {
	v, ok := I.usableValue(value)
	return ok && I.mobileFull.MatchString(v)
}

// IsStrictAddress runs the two stage address gate:
// 区域关键字 AND 详情关键字，排除关键字一票否决。
func (I *Detector) IsStrictAddress(value string) bool {
	v, ok := I.usableValue(value)
	if !ok {
		return false
	}
	if I.addressExclude != nil && I.addressExclude.MatchString(v) {
		return false
	}
	regionOk := !I.cfg.AddressRequireRegion || (I.addressRegion != nil && I.addressRegion.MatchString(v))
	detailOk := !I.cfg.AddressRequireDetail || (I.addressDetail != nil && I.addressDetail.MatchString(v))
	return regionOk && detailOk
}

// LooksLikePassword reports whether value is plausible as a literal password:
// mixed letters and digits, at least 6 chars.
func (I *Detector) LooksLikePassword(value string) bool {
	v := strings.TrimSpace(value)
	n := utf8.RuneCountInString(v)
	if n < 6 || n > I.cfg.MaxValueLength {
		return false
	}
	if strings.EqualFold(v, "null") {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range v {
		if unicode.IsLetter(r) {
			hasLetter = true
		} else if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// LooksLikeHighEntropyToken reports whether value has credential-like
// randomness. A chain of cheap rejections runs before the entropy math so
// URLs, UUIDs, plain hex digests and UA fragments never reach it.
func (I *Detector) LooksLikeHighEntropyToken(value string) bool {
	if !I.cfg.HighEntropyEnabled {
		return false
	}
	t := strings.TrimSpace(value)
	n := utf8.RuneCountInString(t)
	if n < I.cfg.HighEntropyMinLen || n > I.cfg.MaxValueLength {
		return false
	}
	if strings.EqualFold(t, "null") {
		return false
	}
	if strings.Contains(t, "://") {
		return false
	}
	if strings.HasPrefix(t, "data:image") || strings.Contains(t, "base64") {
		return false
	}
	if looksLikeUUID(t) || looksLikeHex(t) || looksLikeUserAgentSegment(t) {
		return false
	}
	if I.cfg.HighEntropyMixed && !hasUpperLowerDigit(t) {
		return false
	}
	return shannonEntropy(t) >= I.cfg.HighEntropyThreshold
}

// FindIDCards returns byte ranges of id numbers in free text.
func (I *Detector) FindIDCards(text string) [][2]int {
	return I.findWithBoundary(I.idCardFind, text, 0, isAlnumASCII)
}

// FindMobiles returns byte ranges of the 11 digit number group in free text.
// +86 前缀不参与替换，只参与边界判断。
func (I *Detector) FindMobiles(text string) [][2]int {
	return I.findWithBoundary(I.mobileFind, text, 1, isDigitASCII)
}

// FindEmails returns byte ranges of email addresses in free text.
func (I *Detector) FindEmails(text string) [][2]int {
	return I.findWithBoundary(I.emailFind, text, 0, isEmailBoundary)
}

// FindAddressCandidates returns byte ranges of address-shaped runs in free
// text. Candidates still must pass IsStrictAddress before masking.
func (I *Detector) FindAddressCandidates(text string) [][2]int {
	if I.addressCandidate == nil {
		return nil
	}
	out := make([][2]int, 0, 4)
	for _, m := range I.addressCandidate.FindAllStringIndex(text, -1) {
		out = append(out, [2]int{m[0], m[1]})
	}
	return out
}

// private func

func (I *Detector) usableValue(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if len(v) == 0 || utf8.RuneCountInString(v) > I.cfg.MaxValueLength {
		return "", false
	}
	if strings.EqualFold(v, "null") {
		return "", false
	}
	return v, true
}

// findWithBoundary runs re over text and keeps matches whose surrounding
// runes fail boundaryRune, i.e. the match is not glued to a larger token.
// group selects the capture group whose range is reported, 0 for the whole
// match. The boundary check always uses the whole match.
func (I *Detector) findWithBoundary(re *regexp.Regexp, text string, group int, boundaryRune func(rune) bool) [][2]int {
	out := make([][2]int, 0, 4)
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			if boundaryRune(r) {
				continue
			}
		}
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			if boundaryRune(r) {
				continue
			}
		}
		gs, ge := start, end
		if group > 0 && 2*group+1 < len(m) && m[2*group] >= 0 {
			gs, ge = m[2*group], m[2*group+1]
		}
		out = append(out, [2]int{gs, ge})
	}
	return out
}

func isDigitASCII(r rune) bool { return r >= '0' && r <= '9' }

func isAlnumASCII(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// '*' counts as glue so the remaining half of a redacted email is not
// re-matched as a fresh address.
func isEmailBoundary(r rune) bool {
	return isAlnumASCII(r) || r == '.' || r == '_' || r == '%' || r == '+' || r == '-' || r == '*'
}

func keywordAlternation(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		t := strings.TrimSpace(w)
		if len(t) > 0 {
			parts = append(parts, regexp.QuoteMeta(t))
		}
	}
	return strings.Join(parts, "|")
}

func hasUpperLowerDigit(s string) bool {
	upper, lower, digit := false, false, false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

func looksLikeHex(s string) bool {
	t := strings.ToLower(s)
	n := len(t)
	if n != 32 && n != 40 && n != 64 {
		return false
	}
	for i := 0; i < n; i++ {
		c := t[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func looksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
			continue
		}
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}
	return true
}

// looksLikeUserAgentSegment matches things like "Mozilla/5.0".
func looksLikeUserAgentSegment(s string) bool {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash >= len(s)-1 {
		return false
	}
	for _, r := range s[:slash] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	hasDigit := false
	for _, r := range s[slash+1:] {
		if r >= '0' && r <= '9' {
			hasDigit = true
		} else if r != '.' && r != '_' {
			return false
		}
	}
	return hasDigit
}

// shannonEntropy is computed per rune, ASCII runes are counted individually
// and everything above 127 shares one bucket.
func shannonEntropy(s string) float64 {
	var counts [128]int
	other := 0
	total := 0
	for _, r := range s {
		total++
		if r < 128 {
			counts[r]++
		} else {
			other++
		}
	}
	if total == 0 {
		return 0
	}
	ent := 0.0
	fl := float64(total)
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / fl
		ent -= p * math.Log2(p)
	}
	if other > 0 {
		p := float64(other) / fl
		ent -= p * math.Log2(p)
	}
	return ent
}
