package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/models"
	"yatube/internal/repository"
)

// FollowCounts are the numbers shown on a profile.
type FollowCounts struct {
	Followers int64
	Following int64
}

// FollowService manages user -> author edges.
type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFollowService(repos *repository.Repositories) *FollowService {
	return &FollowService{users: repos.Users, follows: repos.Follows}
}

func (s *FollowService) author(ctx context.Context, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookup(err, "user "+username)
	}
	return author, nil
}

// Follow makes user follow the named author. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, user *models.User, username string) (*models.User, error) {
	author, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == user.ID {
		return author, ErrFollowSelf
	}
	created, err := s.follows.Create(ctx, user.ID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", username, err)
	}
	if created {
		logger.Debug("follow created", zap.Uint("user_id", user.ID), zap.Uint("author_id", author.ID))
	}
	return author, nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, user *models.User, username string) (*models.User, error) {
	author, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.Delete(ctx, user.ID, author.ID); err != nil {
		return nil, fmt.Errorf("unfollow %s: %w", username, err)
	}
	return author, nil
}

// IsFollowing is false for anonymous visitors and for a user's own profile.
func (s *FollowService) IsFollowing(ctx context.Context, user, author *models.User) (bool, error) {
	if user == nil || user.ID == author.ID {
		return false, nil
	}
	return s.follows.Exists(ctx, user.ID, author.ID)
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var c FollowCounts
	var err error
	if c.Followers, err = s.follows.CountFollowers(ctx, userID); err != nil {
		return c, err
	}
	if c.Following, err = s.follows.CountFollowing(ctx, userID); err != nil {
		return c, err
	}
	return c, nil
}
