package main

import (
	"bytes"
	"strings"
	"testing"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestCheck_Defaults(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := check(envOf(nil), &out, &errOut); code != 0 {
		t.Fatalf("want 0, got %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "preflight passed") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "⚠ ENDPOINT_BASE empty") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestCheck_InvalidTargets(t *testing.T) {
	var out, errOut bytes.Buffer
	code := check(envOf(map[string]string{"TARGETS": " , ,"}), &out, &errOut)
	if code != 1 {
		t.Fatalf("want 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "✖ TARGETS") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestCheck_NormalizesEndpoint(t *testing.T) {
	var out, errOut bytes.Buffer
	code := check(envOf(map[string]string{
		"ENDPOINT_BASE":   "localhost:5002/api/",
		"ADMIN_API_KEYS":  "a1",
		"PUBLIC_API_KEYS": "p1",
	}), &out, &errOut)
	if code != 0 {
		t.Fatalf("want 0, got %d", code)
	}
	if !strings.Contains(out.String(), "✔ ENDPOINT_BASE=http://localhost:5002/api") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestCheck_ReportsEveryProblem(t *testing.T) {
	var out, errOut bytes.Buffer
	code := check(envOf(map[string]string{
		"ENDPOINT_BASE": "http://",
		"TARGETS":       ",",
	}), &out, &errOut)
	if code != 1 {
		t.Fatalf("want 1, got %d", code)
	}
	for _, want := range []string{"✖ ENDPOINT_BASE", "✖ TARGETS", "⚠ DATABASE_URL"} {
		if !strings.Contains(errOut.String(), want) {
			t.Fatalf("stderr missing %q:\n%s", want, errOut.String())
		}
	}
	if strings.Contains(out.String(), "preflight passed") {
		t.Fatal("passed despite fatal problems")
	}
}
