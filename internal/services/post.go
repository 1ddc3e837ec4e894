package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/models"
	"yatube/internal/paginator"
	"yatube/internal/repository"
)

// PostInput is the post form. GroupID 0 means no group; a nil Image keeps
// whatever the post already has.
type PostInput struct {
	Text    string                `form:"text" validate:"notblank"`
	GroupID uint                  `form:"group"`
	Image   *multipart.FileHeader `form:"-" validate:"-"`
}

// PostDetail is everything the detail page shows.
type PostDetail struct {
	Post        *models.Post
	Comments    []models.Comment
	AuthorPosts int64
}

type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	comments repository.CommentRepository
	media    *MediaStore
}

func NewPostService(repos *repository.Repositories, media *MediaStore) *PostService {
	return &PostService{
		posts:    repos.Posts,
		groups:   repos.Groups,
		comments: repos.Comments,
		media:    media,
	}
}

func (s *PostService) apply(ctx context.Context, post *models.Post, in PostInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.GroupID != 0 {
		if _, err := s.groups.GetByID(ctx, in.GroupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fieldError("group", "Select a valid choice. That choice is not one of the available choices.")
			}
			return err
		}
		id := in.GroupID
		post.GroupID = &id
	} else {
		post.GroupID = nil
	}
	post.Group = nil
	post.Text = in.Text

	if in.Image != nil {
		rel, err := s.media.Save(in.Image)
		if err != nil {
			return err
		}
		post.Image = rel
	}
	return nil
}

// Create stores a new post written by author.
func (s *PostService) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	post := &models.Post{AuthorID: author.ID}
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.removeImage(post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	return post, nil
}

// Get returns one post with its author and group.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, fmt.Sprintf("post %d", id))
	}
	return post, nil
}

// GetForEdit returns the post only if actor wrote it.
func (s *PostService) GetForEdit(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

// Edit changes text, group and image of actor's own post. Nothing is written
// when actor is not the author or the input is invalid.
func (s *PostService) Edit(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.GetForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	oldImage := post.Image
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(post.Image)
		}
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	if post.Image != oldImage {
		s.removeImage(oldImage)
	}
	return post, nil
}

// Delete removes actor's own post and its comments.
func (s *PostService) Delete(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.GetForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return nil, lookup(err, fmt.Sprintf("post %d", id))
	}
	s.removeImage(post.Image)
	return post, nil
}

func (s *PostService) removeImage(rel string) {
	if err := s.media.Remove(rel); err != nil {
		logger.Warn("remove post image failed", zap.String("path", rel), zap.Error(err))
	}
}

// Detail loads a post with its comments, oldest first, and the author's
// total post count.
func (s *PostService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPosts: count}, nil
}

type postSource struct {
	repo   repository.PostRepository
	filter repository.PostFilter
}

func (p postSource) Count(ctx context.Context) (int64, error) {
	return p.repo.Count(ctx, p.filter)
}

func (p postSource) Slice(ctx context.Context, offset, limit int) ([]models.Post, error) {
	return p.repo.List(ctx, p.filter, offset, limit)
}

func (s *PostService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (*paginator.Page[models.Post], error) {
	return paginator.Paginate[models.Post](ctx, postSource{repo: s.posts, filter: filter}, paginator.PerPage, rawPage)
}

func (s *PostService) ListAll(ctx context.Context, rawPage string) (*paginator.Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

func (s *PostService) ListGroup(ctx context.Context, group *models.Group, rawPage string) (*paginator.Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
}

func (s *PostService) ListProfile(ctx context.Context, author *models.User, rawPage string) (*paginator.Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
}

// Feed lists posts by every author user follows.
func (s *PostService) Feed(ctx context.Context, user *models.User, rawPage string) (*paginator.Page[models.Post], error) {
	return s.page(ctx, repository.PostFilter{FollowerID: user.ID}, rawPage)
}
