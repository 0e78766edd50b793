package mscfb

import (
	"fmt"
	"path"
	"strings"
)

type Ordering int

const (
	OrderLess Ordering = iota
	OrderEqual
	OrderGreater
)

// ValidateName checks that name can be stored in a directory entry.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrorInvalidData)
	}

	if strings.ContainsAny(name, "/\\:!") {
		return fmt.Errorf("name contains one of /\\:! characters: %v: %w", name, ErrorInvalidData)
	}

	if n := nameUnits(name); n > MAX_NAME_LEN {
		return fmt.Errorf("name %q is %v UTF-16 units long, max is %v: %w", name, n, MAX_NAME_LEN, ErrorInvalidData)
	}

	return nil
}

// CompareNames orders sibling names the way CFB readers search them:
// shorter names first, then by upper-cased value.
func CompareNames(nameLeft, nameRight string) Ordering {
	nl := nameUnits(nameLeft)
	nr := nameUnits(nameRight)

	if nl != nr {
		if nl < nr {
			return OrderLess
		}
		return OrderGreater
	}

	return compareUpper(nameLeft, nameRight)
}

// compareSiblingNames is the ordering used when laying out a storage's
// children. It extends CompareNames: among equal-length names
// "_VBA_PROJECT" sorts last and "__"-prefixed names sort after the rest.
func compareSiblingNames(nameLeft, nameRight string) Ordering {
	nl := nameUnits(nameLeft)
	nr := nameUnits(nameRight)

	if nl != nr {
		if nl < nr {
			return OrderLess
		}
		return OrderGreater
	}

	if nameLeft == VBA_PROJECT_NAME {
		return OrderGreater
	}
	if nameRight == VBA_PROJECT_NAME {
		return OrderLess
	}

	leftPushed := strings.HasPrefix(nameLeft, PUSH_BACK_PREFIX)
	rightPushed := strings.HasPrefix(nameRight, PUSH_BACK_PREFIX)
	if leftPushed != rightPushed {
		if leftPushed {
			return OrderGreater
		}
		return OrderLess
	}

	return compareUpper(nameLeft, nameRight)
}

func compareUpper(nameLeft, nameRight string) Ordering {
	switch c := strings.Compare(strings.ToUpper(nameLeft), strings.ToUpper(nameRight)); {
	case c < 0:
		return OrderLess
	case c > 0:
		return OrderGreater
	default:
		return OrderEqual
	}
}

func NameChainFromPath(s string) []string {
	s = path.Clean(s)
	if s == "" || s == "." {
		return []string{}
	}

	if s[0] == '/' {
		s = s[1:]
	}

	if s == "" {
		return []string{}
	}

	if strings.HasPrefix(s, "..") {
		return []string{}
	}

	return strings.Split(s, "/")
}

func PathFromNameChain(names []string) string {
	return "/" + strings.Join(names, "/")
}

// samePath reports whether two name chains address the same entry. CFB
// names compare case-insensitively.
func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if CompareNames(a[i], b[i]) != OrderEqual {
			return false
		}
	}

	return true
}

// hasPathPrefix reports whether prefix addresses p itself or one of its
// ancestors.
func hasPathPrefix(p, prefix []string) bool {
	if len(prefix) > len(p) {
		return false
	}

	return samePath(p[:len(prefix)], prefix)
}
