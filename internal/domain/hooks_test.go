package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStops(t *testing.T) {
	r := NewHookRegistry[*[]string]()
	boom := errors.New("boom")

	r.OnBeforeDelete(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "first")
		return nil
	})
	r.OnBeforeDelete(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "second")
		return boom
	})
	r.OnBeforeDelete(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "third")
		return nil
	})

	var log []string
	err := r.Run(context.Background(), BeforeDelete, &log)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, log)

	assert.NoError(t, r.Run(context.Background(), AfterDelete, &log))
}
