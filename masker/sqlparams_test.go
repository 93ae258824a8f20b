package masker

import (
	"testing"
)

func TestSQLParametersStringMasked(t *testing.T) {
	c := NewCollector()
	in := "==> Parameters: 13812345678(String), 42(Integer)"
	out := defEngine.MaskSQLParametersLine(in, c)
	want := "==> Parameters: 138****5678(String), 42(Integer)"
	if out != want {
		t.Errorf("expect: %s, actual: %s", want, out)
	}
	pairs := c.Pairs()
	if len(pairs) != 1 || pairs[0].Key != "sqlparameters[0]" || pairs[0].Value != "13812345678" {
		t.Errorf("expect: sqlparameters[0]=13812345678, actual: %+v", pairs)
	}
}

// String 参数即使形态未识别也提取并用 *** 兜底
func TestSQLParametersUnrecognizedStringStillCollected(t *testing.T) {
	c := NewCollector()
	in := "==> Parameters: opaque-blob(String)"
	out := defEngine.MaskSQLParametersLine(in, c)
	want := "==> Parameters: ***(String)"
	if out != want {
		t.Errorf("expect: %s, actual: %s", want, out)
	}
	if c.Len() != 1 || c.Pairs()[0].Value != "opaque-blob" {
		t.Errorf("expect: opaque-blob collected, actual: %+v", c.Pairs())
	}
}

// 已打码的 String 参数原样放行，不兜底也不提取
func TestSQLParametersRedactedStringInert(t *testing.T) {
	c := NewCollector()
	in := "==> Parameters: 138****5678(String), ***(String), 42(Integer)"
	if out := defEngine.MaskSQLParametersLine(in, c); out != in {
		t.Errorf("expect: %s, actual: %s", in, out)
	}
	if c.Len() != 0 {
		t.Errorf("expect: nothing collected, actual: %+v", c.Pairs())
	}
}

func TestSQLParametersNonStringUntouched(t *testing.T) {
	c := NewCollector()
	in := "==> Parameters: 42(Integer), 2024-01-01(Timestamp)"
	out := defEngine.MaskSQLParametersLine(in, c)
	want := "==> Parameters: 42(Integer), 2024-01-01(Timestamp)"
	if out != want {
		t.Errorf("expect: %s, actual: %s", want, out)
	}
	if c.Len() != 0 {
		t.Errorf("expect: nothing collected, actual: %+v", c.Pairs())
	}
}

func TestSQLParametersNoMark(t *testing.T) {
	c := NewCollector()
	in := "select 1 from dual"
	if out := defEngine.MaskSQLParametersLine(in, c); out != in {
		t.Errorf("expect: %s, actual: %s", in, out)
	}
}

func TestSplitParametersListNestedParens(t *testing.T) {
	parts := splitParametersList(" to_char(a,b)(String), 42(Integer)")
	if len(parts) != 2 {
		t.Fatalf("expect: 2 parts, actual: %d (%+v)", len(parts), parts)
	}
	if parts[0] != "to_char(a,b)(String)" {
		t.Errorf("expect: to_char(a,b)(String), actual: %s", parts[0])
	}
}
