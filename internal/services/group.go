package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/models"
	"yatube/internal/repository"
)

type GroupInput struct {
	Title       string `form:"title" validate:"notblank,max=200"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description"`
}

// DefaultGroups are created on first start when no group exists yet.
var DefaultGroups = []GroupInput{
	{Title: "Tech", Slug: "tech", Description: "Programming, gadgets and everything in between."},
	{Title: "Life", Slug: "life", Description: "Everyday stories and experience."},
	{Title: "Showcase", Slug: "showcase", Description: "Projects and things you made."},
	{Title: "Chat", Slug: "chat", Description: "Off-topic conversation."},
}

type GroupService struct {
	groups repository.GroupRepository
}

func NewGroupService(repos *repository.Repositories) *GroupService {
	return &GroupService{groups: repos.Groups}
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetBySlug(ctx, in.Slug); err == nil {
		return nil, fieldError("slug", "Group with this slug already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	group := &models.Group{Title: in.Title, Slug: in.Slug, Description: in.Description}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group %s: %w", in.Slug, err)
	}
	return group, nil
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, lookup(err, "group "+slug)
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// SeedDefaults inserts groups only into an empty table.
func (s *GroupService) SeedDefaults(ctx context.Context, groups []GroupInput) error {
	count, err := s.groups.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("groups already seeded, skipping")
		return nil
	}
	for _, in := range groups {
		if _, err := s.Create(ctx, in); err != nil {
			return fmt.Errorf("seed group %s: %w", in.Slug, err)
		}
	}
	logger.Info("initial groups created", zap.Int("count", len(groups)))
	return nil
}
