package room

import (
	"errors"
	"fmt"
	"strings"
)

// MaxIdentifierLength bounds identifiers accepted from outside the codec.
const MaxIdentifierLength = 256

// ErrInvalidIdentifier reports a string that does not follow the room identifier grammar.
var ErrInvalidIdentifier = errors.New("room: invalid identifier")

// CheckSyntax verifies the identifier grammar without consulting the grammar
// table: "<tag>-<rest>", ASCII letters, digits and hyphens only.
func CheckSyntax(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if len(roomID) > MaxIdentifierLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidIdentifier, MaxIdentifierLength)
	}
	for i := 0; i < len(roomID); i++ {
		if !isIdentifierByte(roomID[i]) {
			return fmt.Errorf("%w: byte %q at offset %d", ErrInvalidIdentifier, roomID[i], i)
		}
	}
	tag, rest, found := strings.Cut(roomID, "-")
	if !found || tag == "" || rest == "" {
		return fmt.Errorf("%w: want <platform>-<id>", ErrInvalidIdentifier)
	}
	return nil
}

// Validate checks the identifier grammar and that its platform tag is registered.
func (r *Registry) Validate(roomID string) error {
	if err := CheckSyntax(roomID); err != nil {
		return err
	}
	tag, _, _ := strings.Cut(roomID, "-")
	if _, ok := r.Get(tag); !ok {
		return fmt.Errorf("%w: unknown platform tag %q", ErrInvalidIdentifier, tag)
	}
	return nil
}

func isIdentifierByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-':
		return true
	}
	return false
}
