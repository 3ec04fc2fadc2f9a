package models

import "fmt"

// ProjectKind records how a project reached a user's feed.
type ProjectKind int

const (
	KindOwned ProjectKind = iota + 1
	KindAssigned
)

func (k ProjectKind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindAssigned:
		return "assigned"
	default:
		return "unknown"
	}
}

func (k ProjectKind) MarshalText() ([]byte, error) {
	switch k {
	case KindOwned, KindAssigned:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid project kind %d", int(k))
}

func (k *ProjectKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "owned":
		*k = KindOwned
	case "assigned":
		*k = KindAssigned
	default:
		return fmt.Errorf("invalid project kind %q", string(text))
	}
	return nil
}
