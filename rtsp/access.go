package rtsp

import "slices"

// anonymousRole is the implicit role carried by unauthenticated
// connections.
const anonymousRole = "anonymous"

// AccessRule grants one role its permissions on one mount path.
// CanAccess lets the role resolve the path at all; CanConstruct lets it
// construct the media, i.e. actually play.
type AccessRule struct {
	Path         string
	Role         string
	CanAccess    bool
	CanConstruct bool
}

// DeclareAccess computes the immutable rule set for one path: every
// permitted role gets access+construct, in sorted order for
// deterministic declaration.
//
// The boundary evaluates CanAccess before it resolves which identity is
// connecting, so an unauthenticated client is always checked against
// the anonymous role first. Without CanAccess the path answers "not
// found"; with CanAccess but without CanConstruct it answers
// "unauthorized". When anonymous is not among the permitted roles we
// therefore add a floor rule granting it CanAccess only: clients learn
// the path exists and get a credential challenge, while playback stays
// gated on each role's CanConstruct.
//
// An empty role set degrades to the floor rule alone.
func DeclareAccess(path string, roles []string) []AccessRule {
	sorted := slices.Clone(roles)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rules := make([]AccessRule, 0, len(sorted)+1)
	anonymous := false
	for _, role := range sorted {
		if role == anonymousRole {
			anonymous = true
		}
		rules = append(rules, AccessRule{
			Path:         path,
			Role:         role,
			CanAccess:    true,
			CanConstruct: true,
		})
	}
	if !anonymous {
		rules = append(rules, AccessRule{
			Path:      path,
			Role:      anonymousRole,
			CanAccess: true,
		})
	}
	return rules
}
