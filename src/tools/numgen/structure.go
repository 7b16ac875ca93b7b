package numgen

import (
	"fmt"
	"go/token"
	"sort"
)

// Kind selects the marker methods a generated type carries.
type Kind string

const (
	Exception         Kind = "exception"
	CoreInterrupt     Kind = "core"
	ExternalInterrupt Kind = "external"
	Priority          Kind = "priority"
	HartId            Kind = "hartid"
)

func (k Kind) markers() ([]string, error) {
	switch k {
	case Exception:
		return []string{"ExceptionNumber"}, nil
	case CoreInterrupt:
		return []string{"InterruptNumber", "CoreInterruptNumber"}, nil
	case ExternalInterrupt:
		return []string{"InterruptNumber", "ExternalInterruptNumber"}, nil
	case Priority:
		return []string{"PriorityNumber"}, nil
	case HartId:
		return []string{"HartIdNumber"}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", string(k))
}

// SpaceDef declares one number space.  Declaration files hold exactly one
// top level var of type *SpaceDef.
type SpaceDef struct {
	Type        string // Go type name, also the prefix of the helpers
	Kind        Kind
	SetName     string // name of the numspace.Set value, defaults to Type+"s"
	Description string
	Member      []MemberDef
}

type MemberDef struct {
	Name        string
	Code        uint
	Description string
}

type run struct {
	Lo, Hi uint
}

// validate checks the declaration and returns the members sorted by code
// together with their contiguous runs.
func (s *SpaceDef) validate() ([]MemberDef, []run, error) {
	if !token.IsIdentifier(s.Type) || !token.IsExported(s.Type) {
		return nil, nil, fmt.Errorf("type name %q is not an exported identifier", s.Type)
	}
	if _, err := s.Kind.markers(); err != nil {
		return nil, nil, err
	}
	if len(s.Member) == 0 {
		return nil, nil, fmt.Errorf("%s: no members", s.Type)
	}
	sorted := append([]MemberDef(nil), s.Member...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	names := map[string]bool{}
	var runs []run
	for i, m := range sorted {
		if !token.IsIdentifier(m.Name) || !token.IsExported(m.Name) {
			return nil, nil, fmt.Errorf("%s: member name %q is not an exported identifier", s.Type, m.Name)
		}
		if names[m.Name] {
			return nil, nil, fmt.Errorf("%s: member %s declared twice", s.Type, m.Name)
		}
		names[m.Name] = true
		if i > 0 && sorted[i-1].Code == m.Code {
			return nil, nil, fmt.Errorf("%s: code %d used by %s and %s",
				s.Type, m.Code, sorted[i-1].Name, m.Name)
		}
		if n := len(runs); n > 0 && runs[n-1].Hi+1 == m.Code {
			runs[n-1].Hi = m.Code
		} else {
			runs = append(runs, run{Lo: m.Code, Hi: m.Code})
		}
	}
	return sorted, runs, nil
}
