package rotation

import (
	"errors"

	"github.com/donggangwhy/ClassicSim/internal/character"
)

var (
	// ErrLeadingOr is returned when a condition stream starts with OR.
	ErrLeadingOr = errors.New("cannot use OR conditional at start")
	// ErrUnsupportedCondition is returned for a condition kind outside the closed set.
	ErrUnsupportedCondition = errors.New("condition type not supported")
	// ErrUnknownBuff is returned when a buff condition names a buff the character lacks.
	ErrUnknownBuff = errors.New("could not find buff for condition")
	// ErrUnknownResource is returned for resource names other than Mana, Rage and Energy.
	ErrUnknownResource = character.ErrUnknownResource
	// ErrInvalidAttackMode is returned for attack modes other than melee, ranged and magic.
	ErrInvalidAttackMode = errors.New("invalid attack mode")
)
