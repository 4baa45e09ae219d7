package character

import (
	"errors"
	"fmt"
	"strings"
)

// Resource identifies a spendable resource pool.
type Resource int

const (
	ResourceMana Resource = iota
	ResourceRage
	ResourceEnergy
)

// ErrUnknownResource indicates a resource name outside Mana, Rage and Energy.
var ErrUnknownResource = errors.New("unknown resource")

func (r Resource) String() string {
	switch r {
	case ResourceMana:
		return "Mana"
	case ResourceRage:
		return "Rage"
	case ResourceEnergy:
		return "Energy"
	default:
		return "Unknown"
	}
}

// ParseResource maps a resource name to its kind. Names are matched
// case-insensitively; anything else is a configuration error.
func ParseResource(name string) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mana":
		return ResourceMana, nil
	case "rage":
		return ResourceRage, nil
	case "energy":
		return ResourceEnergy, nil
	default:
		return 0, fmt.Errorf("%w '%s'", ErrUnknownResource, name)
	}
}

type pool struct {
	current float64
	max     float64
}

func (p *pool) gain(amount float64) float64 {
	before := p.current
	p.current += amount
	if p.current > p.max {
		p.current = p.max
	}
	return p.current - before
}

func (p *pool) spend(amount float64) bool {
	if p.current < amount {
		return false
	}
	p.current -= amount
	return true
}
