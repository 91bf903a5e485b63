package pagestore

import (
	"regexp"
	"strings"
	"testing"
)

func TestFilename_Deterministic(t *testing.T) {
	a := Filename("南开故事001", "http://news.nankai.edu.cn/x")
	b := Filename("南开故事001", "http://news.nankai.edu.cn/x")
	if a != b {
		t.Fatalf("filenames differ: %q vs %q", a, b)
	}
	if !regexp.MustCompile(`^南开故事001_[0-9a-f]{8}\.html$`).MatchString(a) {
		t.Fatalf("unexpected filename shape: %q", a)
	}
}

func TestFilename_DistinctURLsDistinctNames(t *testing.T) {
	a := Filename("t", "http://example.com/1")
	b := Filename("t", "http://example.com/2")
	if a == b {
		t.Fatalf("expected distinct filenames, got %q", a)
	}
}

func TestSanitizeTitle(t *testing.T) {
	got := SanitizeTitle(`a<b>:c"/d\|?*e`)
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Fatalf("illegal characters survive: %q", got)
	}
	if got != "a_b__c__d____e" {
		t.Fatalf("unexpected sanitized title: %q", got)
	}
}

func TestSaveHasLoad(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	name := Filename("title", "http://example.com/a")

	if s.Has(name) {
		t.Fatal("file should not exist yet")
	}
	if err := s.Save(name, []byte("<html></html>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Has(name) {
		t.Fatal("file should exist after save")
	}
	body, err := s.Load(name)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(body) != "<html></html>" {
		t.Fatalf("unexpected body: %q", body)
	}
}
