package fonts

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveAliases(t *testing.T) {
	cases := map[string]string{
		"":                           Sans,
		"Arial":                      Sans,
		"go":                         Sans,
		"'Courier New', monospace":   Mono,
		"Helvetica, monospace":       Mono,
		"  \"Go Mono\"  ":            Mono,
		"Georgia, 'Times New Roman'": Sans,
	}
	for in, want := range cases {
		if got := Resolve(in); got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadVariants(t *testing.T) {
	data, err := Load("Arial", Variant{})
	if err != nil || !bytes.Equal(data, goregular.TTF) {
		t.Fatalf("unknown family should fall back to Go regular: err=%v", err)
	}
	data, err = Load("Go", Variant{Bold: true})
	if err != nil || !bytes.Equal(data, gobold.TTF) {
		t.Fatalf("bold variant mismatch: err=%v", err)
	}
	data, err = Load("monospace", Variant{Italic: true})
	if err != nil || !bytes.Equal(data, gomonoitalic.TTF) {
		t.Fatalf("mono italic variant mismatch: err=%v", err)
	}
}

func TestRegisterFallsBackToRegular(t *testing.T) {
	custom := []byte("not-really-a-font")
	if err := Register("Custom Test", Variant{}, custom); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	data, err := Load("custom test", Variant{Bold: true, Italic: true})
	if err != nil || !bytes.Equal(data, custom) {
		t.Fatalf("missing variant should fall back to regular: err=%v", err)
	}
	if err := Register("", Variant{}, custom); err == nil {
		t.Fatalf("empty family name should be rejected")
	}
	if err := Register("x", Variant{}, nil); err == nil {
		t.Fatalf("empty data should be rejected")
	}
}

func TestRegisterFoldsCase(t *testing.T) {
	regular := []byte("case-test-regular")
	bold := []byte("case-test-bold")
	if err := Register("Case Test", Variant{}, regular); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	if err := Register("CASE TEST", Variant{Bold: true}, bold); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	for range 50 {
		if got := Resolve("case test"); got != "Case Test" {
			t.Fatalf("Resolve = %q, want first registered spelling", got)
		}
	}
	data, err := Load("case TEST", Variant{Bold: true})
	if err != nil || !bytes.Equal(data, bold) {
		t.Fatalf("variants should merge into one family: err=%v", err)
	}
	n := 0
	for _, f := range Families() {
		if strings.EqualFold(f, "case test") {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("family listed %d times", n)
	}
}
