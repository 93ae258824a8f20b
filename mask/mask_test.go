package mask

import (
	"os"
	"testing"

	"github.com/geekfrog/securelog-ecc/conf"
)

var defMasker *Masker

func TestMain(m *testing.M) {
	defMasker = NewMasker(conf.NewSnapshot(conf.NewManager()))
	ret := m.Run()
	os.Exit(ret)
}

func TestMaskIDCard(t *testing.T) {
	cases := []struct{ in, want string }{
		{"110225199003076127", "110225********6127"},
		{"11022519900307612X", "110225********612X"},
		{"123456789", "***"},
		{" 110225199003076127 ", "110225********6127"},
	}
	for _, c := range cases {
		if got := defMasker.MaskIDCard(c.in); got != c.want {
			t.Errorf("in: %s, expect: %s, actual: %s", c.in, c.want, got)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"13812345678", "138****5678"},
		{"+86 13812345678", "+8***78"},
		{"02112345678", "021****5678"},
		{"123456", "***"},
		{"abcdefg", "***"},
	}
	for _, c := range cases {
		if got := defMasker.MaskPhone(c.in); got != c.want {
			t.Errorf("in: %s, expect: %s, actual: %s", c.in, c.want, got)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"alice@example.com", "a***e@example.com"},
		{"bob@example.com", "b***b@example.com"},
		{"ab@x.com", "a***@x.com"},
		{"nodomain", "***"},
		{"@example.com", "***"},
	}
	for _, c := range cases {
		if got := defMasker.MaskEmail(c.in); got != c.want {
			t.Errorf("in: %s, expect: %s, actual: %s", c.in, c.want, got)
		}
	}
}

func TestMaskAddress(t *testing.T) {
	cases := []struct{ in, want string }{
		{"北京市海淀区中关村大街1号", "北京***1号"},
		{"四字地址", "***"},
	}
	for _, c := range cases {
		if got := defMasker.MaskAddress(c.in); got != c.want {
			t.Errorf("in: %s, expect: %s, actual: %s", c.in, c.want, got)
		}
	}
}

func TestMaskPassword(t *testing.T) {
	if got := defMasker.MaskPassword("whatever"); got != "***" {
		t.Errorf("expect: ***, actual: %s", got)
	}
}

func TestMaskToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{"AbC123xyz789LmNop456QrS", "AbC1***6QrS"},
		{"short", "***"},
		{"", "***"},
	}
	for _, c := range cases {
		if got := defMasker.MaskToken(c.in); got != c.want {
			t.Errorf("in: %s, expect: %s, actual: %s", c.in, c.want, got)
		}
	}
}

func TestMaskTokenConfiguredKeep(t *testing.T) {
	m := conf.NewManager()
	m.Set(conf.KeyTokenKeepPrefix, "2")
	m.Set(conf.KeyTokenKeepSuffix, "2")
	mk := NewMasker(conf.NewSnapshot(m))
	if got := mk.MaskToken("abcdefgh"); got != "ab***gh" {
		t.Errorf("expect: ab***gh, actual: %s", got)
	}
}
