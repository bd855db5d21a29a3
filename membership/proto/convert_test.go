package proto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFromListValue(t *testing.T) {
	start := time.Date(2023, 6, 1, 12, 0, 0, 123000, time.UTC)

	list, err := ToListValue([]Member{{
		SiloID:       "silo-a",
		Address:      "10.0.0.1:3000",
		Status:       "active",
		StartTime:    start,
		IAmAliveTime: start.Add(time.Minute),
		Version:      42,
	}})
	require.NoError(t, err)

	members, err := FromListValue(list)
	require.NoError(t, err)
	require.Len(t, members, 1)

	m := members[0]
	assert.Equal(t, "silo-a", m.SiloID)
	assert.Equal(t, "active", m.Status)
	assert.True(t, start.Equal(m.StartTime))
	assert.True(t, start.Add(time.Minute).Equal(m.IAmAliveTime))
	assert.Equal(t, uint64(42), m.Version)
}

func TestFromListValue_Malformed(t *testing.T) {
	list, err := structpb.NewList([]interface{}{"not a struct"})
	require.NoError(t, err)

	_, err = FromListValue(list)
	assert.Error(t, err)

	list, err = structpb.NewList([]interface{}{
		map[string]interface{}{FieldSiloID: "silo-a"},
	})
	require.NoError(t, err)

	_, err = FromListValue(list)
	assert.ErrorContains(t, err, FieldAddress)
}
