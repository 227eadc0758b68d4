package virtual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(processTable()))
	require.NoError(t, r.Register(NewMemoryTable("Users", nil)))

	assert.True(t, r.HasTable("PROCESSES"))
	assert.Equal(t, []string{"Users", "processes"}, r.ListVirtualTables())

	table, err := r.GetVirtualTable("users")
	require.NoError(t, err)
	assert.Equal(t, "Users", table.GetName())

	err = r.Register(NewMemoryTable("Processes", nil))
	var exists *domain.ErrTableAlreadyExists
	assert.True(t, errors.As(err, &exists))

	_, err = r.GetVirtualTable("missing")
	var notFound *domain.ErrTableNotFound
	assert.True(t, errors.As(err, &notFound))

	assert.True(t, r.Unregister("users"))
	assert.False(t, r.Unregister("users"))
	assert.False(t, r.HasTable("users"))
}

func TestRegistry_RejectsUnnamed(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(NewMemoryTable("", nil)))
	assert.Error(t, r.Register(nil))
}
