package main

import "testing"

func TestEnvOr(t *testing.T) {
	t.Setenv("CAMLINK_TEST_KEY", "set")
	if got := envOr("CAMLINK_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("set variable: got %q, want %q", got, "set")
	}
	if got := envOr("CAMLINK_TEST_ABSENT", "fallback"); got != "fallback" {
		t.Errorf("absent variable: got %q, want %q", got, "fallback")
	}

	t.Setenv("CAMLINK_TEST_EMPTY", "")
	if got := envOr("CAMLINK_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("empty variable: got %q, want %q", got, "fallback")
	}
}
