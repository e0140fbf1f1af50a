package optimizer

import "fmt"

// New returns the optimizer registered under name. The container backend is
// built by the caller because it needs image settings.
func New(name string) (Optimizer, error) {
	switch name {
	case "", "des":
		return NewDES(), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
