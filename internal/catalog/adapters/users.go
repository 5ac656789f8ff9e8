package adapters

import (
	"context"

	usersdomain "travelhub/internal/users/domain"
)

// UserFinder is the part of the users service the catalog reads
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*usersdomain.User, error)
}

// UserDirectory implements ports.UserDirectory in-process over the users service
type UserDirectory struct {
	users UserFinder
}

// NewUserDirectory creates a new user directory
func NewUserDirectory(users UserFinder) *UserDirectory {
	return &UserDirectory{users: users}
}

// Usernames maps the ids that exist to their usernames
func (d *UserDirectory) Usernames(ctx context.Context, ids []string) (map[string]string, error) {
	users, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
