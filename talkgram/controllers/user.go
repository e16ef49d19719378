package controllers

import (
	"context"

	"talkgram/talkgram/sources/psql/dao"
	"talkgram/talkgram/utils/types"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

// GetUser returns the record the page reads on load: profile plus the
// current credit balance. A missing record shows as zero credits.
func (c *UserController) GetUser(ctx context.Context, uid string) (*types.UserResponse, error) {
	user, err := c.dao.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &types.UserResponse{UID: uid, Credits: 0, Role: "user"}, nil
	}
	return &types.UserResponse{
		UID:          user.UID,
		Name:         user.Name,
		Email:        user.Email,
		PhotoURL:     user.PhotoURL,
		Credits:      user.Credits,
		Role:         user.Role,
		HasPurchased: user.HasPurchased,
	}, nil
}
