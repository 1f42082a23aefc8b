package util

import "testing"

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	for _, name := range []string{"../../etc/passwd", "..", `..\win.ini`, "logs/..", "   "} {
		if _, err := SanitizeFileName(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}

func TestSanitizeFileNameAllowsInteriorDots(t *testing.T) {
	got, err := SanitizeFileName("report..final.txt")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "report..final.txt" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}

func TestSanitizeFileNameReplacesSeparators(t *testing.T) {
	got, err := SanitizeFileName(`dir/sub\name.txt`)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "dir_sub_name.txt" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"report.PDF":   "pdf",
		"archive.tar":  "tar",
		"noext":        "",
		"trailingdot.": "",
		"a.b.c.PNG":    "png",
	}
	for name, want := range cases {
		if got := FileExtension(name); got != want {
			t.Fatalf("FileExtension(%q) = %q, want %q", name, got, want)
		}
	}
}
