package services

import (
	"context"
	"fmt"

	"yatube/internal/models"
	"yatube/internal/repository"
)

type CommentInput struct {
	Text string `form:"text" validate:"notblank"`
}

type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewCommentService(repos *repository.Repositories) *CommentService {
	return &CommentService{posts: repos.Posts, comments: repos.Comments}
}

// Add attaches a comment by author to an existing post.
func (s *CommentService) Add(ctx context.Context, author *models.User, postID uint, in CommentInput) (*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, lookup(err, fmt.Sprintf("post %d", postID))
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, AuthorID: author.ID, Text: in.Text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *author
	return comment, nil
}
