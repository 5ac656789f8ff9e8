package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usersdomain "travelhub/internal/users/domain"
)

type stubFinder struct {
	users []*usersdomain.User
	err   error
	asked []string
}

func (f *stubFinder) FindByIDs(ctx context.Context, ids []string) ([]*usersdomain.User, error) {
	f.asked = ids
	return f.users, f.err
}

func TestUserDirectory_Usernames(t *testing.T) {
	finder := &stubFinder{users: []*usersdomain.User{{ID: "u1", Username: "alice"}}}

	names, err := NewUserDirectory(finder).Usernames(context.Background(), []string{"u1", "gone"})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "alice"}, names)
	assert.Equal(t, []string{"u1", "gone"}, finder.asked)
}

func TestUserDirectory_Error(t *testing.T) {
	finder := &stubFinder{err: errors.New("db down")}

	_, err := NewUserDirectory(finder).Usernames(context.Background(), []string{"u1"})

	assert.Error(t, err)
}
