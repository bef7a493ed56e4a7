package memory

import (
	"testing"

	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/bcnelson/qr-template-studio/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return New()
	})
}
