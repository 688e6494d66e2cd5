// AngelaMos | 2026
// role_test.go

package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current Type
		want    Type
		wantErr bool
	}{
		{"banned to user", Banned, User, false},
		{"user to admin", User, Admin, false},
		{"admin to manager", Admin, Manager, false},
		{"manager is terminal", Manager, 0, true},
		{"negative ordinal", Type(-1), 0, true},
		{"ordinal past top", Type(4), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHierarchy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestListIsAscending(t *testing.T) {
	roles := List()
	require.Len(t, roles, 4)
	for i, r := range roles {
		assert.Equal(t, Type(i), r.Type)
	}

	roles[0].Name = "mutated"
	assert.Equal(t, "Banned", List()[0].Name)
}

func TestHighest(t *testing.T) {
	assert.Equal(t, Banned, Highest(nil).Type)
	assert.Equal(t, Banned, Highest([]Role{}).Type)
	assert.Equal(t, Admin, Highest([]Role{{Type: User}, {Type: Admin}}).Type)
	assert.Equal(t, Manager, Highest([]Role{{Type: Manager}, {Type: User}}).Type)
}

func TestNameOf(t *testing.T) {
	name, err := NameOf(Admin)
	require.NoError(t, err)
	assert.Equal(t, "Admin", name)

	_, err = NameOf(Type(9))
	assert.ErrorIs(t, err, ErrInvalidHierarchy)
}

func TestParse(t *testing.T) {
	r, err := Parse(" manager ")
	require.NoError(t, err)
	assert.Equal(t, Manager, r.Type)

	_, err = Parse("owner")
	assert.ErrorIs(t, err, ErrInvalidHierarchy)
}
