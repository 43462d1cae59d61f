package workspace

import (
	"errors"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

var (
	ErrInvalidPath   = errors.New("invalid file path")
	ErrNotFound      = errors.New("file not found")
	ErrProtectedFile = errors.New("entry file cannot be deleted")
)

// KindOf classifies err for transport layers
func KindOf(err error) types.ErrorKind {
	switch {
	case err == nil:
		return types.KindNone
	case errors.Is(err, ErrInvalidPath):
		return types.KindInvalidPath
	case errors.Is(err, ErrNotFound):
		return types.KindNotFound
	case errors.Is(err, ErrProtectedFile):
		return types.KindProtectedFile
	default:
		return types.KindInternal
	}
}
