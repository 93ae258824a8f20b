// Package securelog provides the log masking and SECURE_DATA API.
// 先结构化脱敏保证日志可打印，再把提取到的原始敏感值加密为 SECURE_DATA，
// 供审计/排障侧用 SM2 私钥回溯明文。
package securelog

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/ecccore"
	"github.com/geekfrog/securelog-ecc/eccheader"
	"github.com/geekfrog/securelog-ecc/errlist"
	"github.com/geekfrog/securelog-ecc/log"
	"github.com/geekfrog/securelog-ecc/masker"
	"github.com/geekfrog/securelog-ecc/mdc"
)

// const var for securelog
const (
	Version     = "v2.0.3"
	PackageName = "github.com/geekfrog/securelog-ecc"
	FullVer     = PackageName + "@" + Version
)

// Processor implements eccheader.ProcessorAPI.
// 一个 Processor 绑定一份配置快照；运行期改配置需重建 Processor。
type Processor struct {
	cfg         *conf.Snapshot
	engine      *masker.Engine
	builder     *Builder
	fingerprint string
	isClosed    bool
}

// public func

// NewProcessor builds a Processor from a property bag,不要放在循环中调用.
// The public key may be absent or broken: masking still works, envelopes
// are skipped and a warning is logged once here.
func NewProcessor(m *conf.Manager) (eccheader.ProcessorAPI, error) {
	return NewProcessorFromSnapshot(conf.NewSnapshot(m))
}

// NewProcessorFromSnapshot builds a Processor from an already parsed snapshot.
func NewProcessorFromSnapshot(cfg *conf.Snapshot) (eccheader.ProcessorAPI, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	p := &Processor{
		cfg:         cfg,
		engine:      masker.NewEngine(cfg),
		fingerprint: "",
	}
	builder, err := NewBuilder(cfg)
	if err != nil {
		log.Warnf("secure data disabled, masking only: %v", err)
	} else {
		p.builder = builder
		p.fingerprint = ecccore.PublicKeyFingerprint(cfg.PublicKeyBase64)
	}
	return p, nil
}

// Process masks one log record and, when sensitive values were extracted,
// encrypts them into a SECURE_DATA envelope. The masked text is always
// usable, crypto failure degrades to masking only.
func (I *Processor) Process(ctx context.Context, message string) eccheader.ProcessResult {
	defer I.recoveryImpl()
	if len(message) == 0 || I.isClosed {
		return eccheader.ProcessResult{Masked: message}
	}

	r := I.engine.Mask(message)
	out := eccheader.ProcessResult{Masked: r.Masked}
	if len(r.Extracted) == 0 || I.builder == nil {
		return out
	}

	secureData, err := I.buildSecureData(pairsToJSON(r.Extracted), I.traceIDFrom(ctx))
	if err != nil {
		log.Errorf("build secure data: %v", err)
		return out
	}
	out.SecureData = secureData
	if len(secureData) > 0 {
		out.Fingerprint = I.fingerprint
	}
	return out
}

// ProcessToContext masks the record and publishes envelope plus fingerprint
// into the context diagnostic map under the configured keys. Records with
// no envelope clear both keys, stale values never leak onto later records.
func (I *Processor) ProcessToContext(ctx context.Context, message string) (context.Context, string) {
	r := I.Process(ctx, message)
	if r.HasSecureData() {
		ctx = mdc.With(ctx, I.cfg.MdcSecureDataKey, r.SecureData)
		if len(r.Fingerprint) > 0 {
			ctx = mdc.With(ctx, I.cfg.MdcFingerprintKey, r.Fingerprint)
		}
		return ctx, r.Masked
	}
	return I.ClearSecureDataFromContext(ctx), r.Masked
}

// ClearSecureDataFromContext removes the configured output keys.
func (I *Processor) ClearSecureDataFromContext(ctx context.Context) context.Context {
	return mdc.Without(ctx, I.cfg.MdcSecureDataKey, I.cfg.MdcFingerprintKey)
}

// Fingerprint returns the configured public key fingerprint, empty when no
// usable key is configured.
func (I *Processor) Fingerprint() string {
	return I.fingerprint
}

// ClearSessionKeys drops all cached per-trace keys.
func (I *Processor) ClearSessionKeys() {
	if I.builder != nil {
		I.builder.Keys().ClearSession()
	}
}

// ClearSystemKeys drops all cached time-window keys.
func (I *Processor) ClearSystemKeys() {
	if I.builder != nil {
		I.builder.Keys().ClearSystem()
	}
}

// SetSessionCacheSize resizes the session key cache.
func (I *Processor) SetSessionCacheSize(size int) error {
	if I.builder == nil {
		return errlist.ERR_PUBLIC_KEY_EMPTY
	}
	return I.builder.Keys().SetSessionCapacity(size)
}

// SetSystemCacheSize resizes the system key cache.
func (I *Processor) SetSystemCacheSize(size int) error {
	if I.builder == nil {
		return errlist.ERR_PUBLIC_KEY_EMPTY
	}
	return I.builder.Keys().SetSystemCapacity(size)
}

// GetVersion return securelog SDK version
func (I *Processor) GetVersion() string {
	return Version
}

// Close release inner object
func (I *Processor) Close() {
	defer I.recoveryImpl()
	if I.builder != nil {
		I.builder.Keys().ClearSession()
		I.builder.Keys().ClearSystem()
	}
	I.engine = nil
	I.builder = nil
	I.isClosed = true
	log.Flush()
}

// private func

func (I *Processor) buildSecureData(sensitiveJSON, traceID string) (string, error) {
	if len(sensitiveJSON) == 0 {
		return "", nil
	}
	if len(traceID) > 0 {
		return I.builder.BuildForTrace(sensitiveJSON, traceID)
	}
	return I.builder.BuildForSystem(sensitiveJSON)
}

// traceIDFrom returns the first non-empty diagnostic value among the
// configured trace id keys.
func (I *Processor) traceIDFrom(ctx context.Context) string {
	for _, key := range I.cfg.TraceIDKeys {
		if v := mdc.Get(ctx, key); len(v) > 0 {
			return v
		}
	}
	return ""
}

// recoveryImpl implements recover if panic
func (I *Processor) recoveryImpl() {
	if r := recover(); r != nil {
		log.Errorf("%s, msg: %+v", errlist.ERR_PANIC.Error(), r)
		debug.PrintStack()
	}
}

// pairsToJSON renders the extracted pairs as one compact JSON object,
// insertion order preserved. 手写拼接避免反射与 map 随机序。
func pairsToJSON(pairs []masker.Pair) string {
	if len(pairs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(pairs) * 32)
	sb.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		writeJSONEscaped(&sb, p.Key)
		sb.WriteString(`":"`)
		writeJSONEscaped(&sb, p.Value)
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func writeJSONEscaped(sb *strings.Builder, s string) {
	for _, r := range s {
		switch r {
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
			sb.WriteRune(r)
		}
	}
}
