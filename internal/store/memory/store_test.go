package memory

import (
	"testing"

	"github.com/yuanying/epubpager/internal/store"
	"github.com/yuanying/epubpager/internal/store/testsuite"
)

func TestStore(t *testing.T) {
	testsuite.TestStore(t, func(t *testing.T) (store.Store, error) {
		return NewStore(), nil
	})
}
