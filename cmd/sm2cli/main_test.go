package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geekfrog/securelog-ecc/ecccore"
)

func TestRunKeygenWritesKeyAndFingerprintFiles(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)

	sink, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	if err := runKeygen(sink); err != nil {
		t.Fatalf("keygen error: %v", err)
	}

	files := make(map[string]string)
	for _, pattern := range []string{"sm2_public_key_*.txt", "sm2_private_key_*.txt", "sm2_fingerprint_*.txt"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 {
			t.Fatalf("pattern %s: expect: 1 file, actual: %d", pattern, len(matches))
		}
		buf, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatal(err)
		}
		if len(buf) == 0 {
			t.Errorf("file %s is empty", matches[0])
		}
		files[pattern] = string(buf)
	}

	want := ecccore.PublicKeyFingerprint(files["sm2_public_key_*.txt"])
	if files["sm2_fingerprint_*.txt"] != want {
		t.Errorf("expect: %s, actual: %s", want, files["sm2_fingerprint_*.txt"])
	}
}
