package masker

import (
	"os"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/geekfrog/securelog-ecc/conf"
)

var defEngine *Engine

func TestMain(m *testing.M) {
	defEngine = NewEngine(conf.NewSnapshot(conf.NewManager()))
	ret := m.Run()
	os.Exit(ret)
}

// MaskVector is one in/out pair of the engine level vector file.
type MaskVector struct {
	In  string `yaml:"in"`
	Out string `yaml:"out"`
}

type vectorFile struct {
	Vectors []MaskVector `yaml:"vectors"`
}

func loadVectors(t *testing.T) []MaskVector {
	buf, err := os.ReadFile("./test/vector_test.yml")
	if err != nil {
		t.Fatalf("load vector file error: %v", err)
	}
	var f vectorFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		t.Fatalf("parse vector file error: %v", err)
	}
	return f.Vectors
}

func TestMaskVectors(t *testing.T) {
	for _, v := range loadVectors(t) {
		r := defEngine.Mask(v.In)
		if r.Masked != v.Out {
			t.Errorf("in: %s, expect: %s, actual: %s", v.In, v.Out, r.Masked)
		}
	}
}

func TestMaskExtractsOriginalValues(t *testing.T) {
	r := defEngine.Mask(`{"password":"secret123","name":"bob"}`)
	if len(r.Extracted) != 1 {
		t.Fatalf("expect: 1 extracted, actual: %d", len(r.Extracted))
	}
	if r.Extracted[0].Key != "password" || r.Extracted[0].Value != "secret123" {
		t.Errorf("expect: password=secret123, actual: %s=%s", r.Extracted[0].Key, r.Extracted[0].Value)
	}
}

func TestMaskJSONTerminatesWithoutHits(t *testing.T) {
	in := `{"a":"b"}`
	r := defEngine.Mask(in)
	if r.Masked != in {
		t.Errorf("expect: %s, actual: %s", in, r.Masked)
	}
	if len(r.Extracted) != 0 {
		t.Errorf("expect: 0 extracted, actual: %d", len(r.Extracted))
	}
}

// 敏感 key 但掩码未改变值时不提取
func TestMaskJSONSensitiveKeyUnchangedNotCollected(t *testing.T) {
	in := `{"address":"somewhere"}`
	r := defEngine.Mask(in)
	if r.Masked != in {
		t.Errorf("expect: %s, actual: %s", in, r.Masked)
	}
	if len(r.Extracted) != 0 {
		t.Errorf("expect: 0 extracted, actual: %d", len(r.Extracted))
	}
}

func TestMaskInvalidJSONFallsThrough(t *testing.T) {
	r := defEngine.Mask(`{"password":"x"} done`)
	want := `{"password":"***"} done`
	if r.Masked != want {
		t.Errorf("expect: %s, actual: %s", want, r.Masked)
	}
}

func TestMaskQueryStringContinuationAbsorbed(t *testing.T) {
	r := defEngine.Mask("password=se&cret&user=frog")
	want := "password=***&***&user=frog"
	if r.Masked != want {
		t.Errorf("expect: %s, actual: %s", want, r.Masked)
	}
	if len(r.Extracted) != 1 || r.Extracted[0].Key != "query.password" || r.Extracted[0].Value != "se&cret" {
		t.Errorf("expect: query.password=se&cret, actual: %+v", r.Extracted)
	}
}

// 脱敏结果再脱敏一遍：输出不变，也不得再提取出任何值
func TestMaskSecondPassExtractsNothing(t *testing.T) {
	inputs := []string{
		"password=hunter2&type=1",
		"token=AbC123xyz789LmNop456QrS&id=7",
		"password=se&cret&user=frog",
		`{"password":"secret123","phone":"13812345678","email":"bob@example.com"}`,
		"==> Parameters: 13812345678(String), 42(Integer)",
		"GET /api/user?token=AbC123xyz789LmNop456QrS&id=7 HTTP/1.1",
		"login ok password=hunter2 user=frog",
		"user called from 13812345678 about id 110225199003076127",
		"contact bob@example.com now",
	}
	for _, in := range inputs {
		first := defEngine.Mask(in)
		second := defEngine.Mask(first.Masked)
		if second.Masked != first.Masked {
			t.Errorf("in: %s, expect stable: %s, actual: %s", in, first.Masked, second.Masked)
		}
		if len(second.Extracted) != 0 {
			t.Errorf("in: %s, expect: nothing extracted on second pass, actual: %+v", in, second.Extracted)
		}
	}
}

func TestMaskSingleKVNotBareQueryString(t *testing.T) {
	// a lone k=v has no '&', it must go down the key/value branch
	r := defEngine.Mask("token=AbC123xyz789LmNop456QrS")
	want := "token=AbC1***6QrS"
	if r.Masked != want {
		t.Errorf("expect: %s, actual: %s", want, r.Masked)
	}
}

func TestMaskTokenLikeHighEntropy(t *testing.T) {
	r := defEngine.Mask(`{"auth":"AbC123xyz789LmNop456QrS"}`)
	want := `{"auth":"AbC1***6QrS"}`
	if r.Masked != want {
		t.Errorf("expect: %s, actual: %s", want, r.Masked)
	}
	if len(r.Extracted) != 1 || r.Extracted[0].Key != "auth" {
		t.Errorf("expect: auth extracted, actual: %+v", r.Extracted)
	}
}

func TestMaskTokenLikeLowEntropyKept(t *testing.T) {
	in := `{"auth":"aaaaaaaaaaaaaaaaaaaaaaaa"}`
	r := defEngine.Mask(in)
	if r.Masked != in {
		t.Errorf("expect: %s, actual: %s", in, r.Masked)
	}
}

func TestMaskEmptyMessage(t *testing.T) {
	r := defEngine.Mask("")
	if r.Masked != "" || len(r.Extracted) != 0 {
		t.Errorf("expect: empty result, actual: %+v", r)
	}
}

func TestCollectorDuplicateKeys(t *testing.T) {
	c := NewCollector()
	c.Put("mobile", "13812345678")
	c.Put("mobile", "13912345678")
	c.Put(` "Mobile" `, "13712345678")
	pairs := c.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("expect: 3 pairs, actual: %d", len(pairs))
	}
	wantKeys := []string{"mobile", "mobile1", "mobile2"}
	for i, w := range wantKeys {
		if pairs[i].Key != w {
			t.Errorf("expect: %s, actual: %s", w, pairs[i].Key)
		}
	}
}
