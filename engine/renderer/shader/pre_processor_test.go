package shader

import (
	"strings"
	"testing"
)

func TestProcessConditionals(t *testing.T) {
	src := strings.Join([]string{
		"a",
		"//@oxy:if FOO",
		"foo",
		"//@oxy:if BAR",
		"foobar",
		"//@oxy:endif",
		"//@oxy:else",
		"notfoo",
		"//@oxy:endif",
		"//@oxy:ifnot BAR",
		"notbar",
		"//@oxy:endif",
		"z",
	}, "\n")

	tests := []struct {
		name string
		defs []string
		want string
	}{
		{"none", nil, "a\nnotfoo\nnotbar\nz"},
		{"foo", []string{"FOO"}, "a\nfoo\nnotbar\nz"},
		{"foo bar", []string{"FOO", "BAR"}, "a\nfoo\nfoobar\nz"},
		{"bar only", []string{"BAR"}, "a\nnotfoo\nz"},
	}

	pp := NewPreProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pp.Process(src, tt.defs, Generated{})
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Process() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessInjections(t *testing.T) {
	src := "//@oxy:include view\n//@oxy:include material\n//@oxy:instances\n//@oxy:if NOPE\n//@oxy:vertex_input\n//@oxy:endif"
	got, err := NewPreProcessor().Process(src, nil, Generated{Instances: "INSTANCES", VertexInput: "VERTEX"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, want := range []string{"struct ViewUniform", "struct MaterialUniform", "INSTANCES"} {
		if !strings.Contains(got, want) {
			t.Errorf("Process() output missing %q", want)
		}
	}
	if strings.Contains(got, "VERTEX") {
		t.Errorf("Process() expanded an annotation inside a dropped section")
	}
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"endif without if", "//@oxy:endif"},
		{"else without if", "//@oxy:else"},
		{"duplicate else", "//@oxy:if A\n//@oxy:else\n//@oxy:else\n//@oxy:endif"},
		{"unterminated", "//@oxy:if A\nx"},
		{"unknown annotation", "//@oxy:group 0 0"},
		{"unknown include", "//@oxy:include camera"},
		{"bad definition", "//@oxy:if lower\n//@oxy:endif"},
		{"empty", "//@oxy:"},
		{"instances with args", "//@oxy:instances 3"},
	}

	pp := NewPreProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pp.Process(tt.src, nil, Generated{}); err == nil {
				t.Errorf("Process(%q) error = nil, want error", tt.src)
			}
		})
	}
}

func TestParseAnnotationIgnoresPlainLines(t *testing.T) {
	for _, line := range []string{"", "let x = 1;", "// a comment", "    return out;"} {
		a, err := parseAnnotation(line, 1)
		if a != nil || err != nil {
			t.Errorf("parseAnnotation(%q) = %v, %v, want nil, nil", line, a, err)
		}
	}
}
