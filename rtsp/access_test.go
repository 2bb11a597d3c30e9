package rtsp

import "testing"

func TestDeclareAccessAddsAnonymousFloor(t *testing.T) {
	t.Parallel()
	rules := DeclareAccess("/live/main", []string{"alice", "bob"})

	if len(rules) != 3 {
		t.Fatalf("rule count: got %d, want 3", len(rules))
	}
	want := []AccessRule{
		{Path: "/live/main", Role: "alice", CanAccess: true, CanConstruct: true},
		{Path: "/live/main", Role: "bob", CanAccess: true, CanConstruct: true},
		{Path: "/live/main", Role: "anonymous", CanAccess: true, CanConstruct: false},
	}
	for i, rule := range want {
		if rules[i] != rule {
			t.Errorf("rule %d: got %+v, want %+v", i, rules[i], rule)
		}
	}
}

func TestDeclareAccessExplicitAnonymous(t *testing.T) {
	t.Parallel()
	rules := DeclareAccess("/live/main", []string{"anonymous"})

	if len(rules) != 1 {
		t.Fatalf("rule count: got %d, want 1", len(rules))
	}
	want := AccessRule{Path: "/live/main", Role: "anonymous", CanAccess: true, CanConstruct: true}
	if rules[0] != want {
		t.Errorf("got %+v, want %+v", rules[0], want)
	}
}

func TestDeclareAccessEmptyRoles(t *testing.T) {
	t.Parallel()
	rules := DeclareAccess("/live/main", nil)

	if len(rules) != 1 {
		t.Fatalf("rule count: got %d, want 1", len(rules))
	}
	if rules[0].Role != "anonymous" || !rules[0].CanAccess || rules[0].CanConstruct {
		t.Errorf("empty role set must degrade to the anonymous floor, got %+v", rules[0])
	}
}

func TestDeclareAccessDeduplicates(t *testing.T) {
	t.Parallel()
	rules := DeclareAccess("/p", []string{"alice", "alice"})
	if len(rules) != 2 {
		t.Fatalf("rule count: got %d, want 2 (alice + floor)", len(rules))
	}
}
