package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"
	"yatube/internal/web"
)

type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	groups   *services.GroupService
	follows  *services.FollowService
	auth     *services.AuthService
	listing  *cache.ListingCache
	tmpl     *web.Templates
}

func NewPostHandler(
	posts *services.PostService,
	comments *services.CommentService,
	groups *services.GroupService,
	follows *services.FollowService,
	auth *services.AuthService,
	listing *cache.ListingCache,
	tmpl *web.Templates,
) *PostHandler {
	return &PostHandler{
		posts:    posts,
		comments: comments,
		groups:   groups,
		follows:  follows,
		auth:     auth,
		listing:  listing,
		tmpl:     tmpl,
	}
}

func profilePath(username string) string { return "/profile/" + username + "/" }

func postPath(id uint) string { return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/" }

func (h *PostHandler) postID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("post_id"))
	if !ok {
		NotFound(c)
	}
	return id, ok
}

// Index lists all posts. The default render (no page parameter) comes from
// the listing cache and may be stale for up to the cache TTL.
func (h *PostHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	raw, paged := c.GetQuery("page")

	render := func() ([]byte, error) {
		page, err := h.posts.ListAll(ctx, raw)
		if err != nil {
			return nil, err
		}
		return h.tmpl.Execute("posts/index_listing.html", gin.H{
			"Page":      page,
			"BasePath":  "/",
			"ShowGroup": true,
		})
	}

	var body []byte
	var err error
	if paged {
		body, err = render()
	} else {
		body, err = h.listing.Fetch(ctx, cache.IndexPageKey, render)
	}
	if err != nil {
		RenderError(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/index.html", gin.H{
		"Listing": template.HTML(body),
		"Active":  "index",
	})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()
	group, err := h.groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		RenderError(c, err)
		return
	}
	page, err := h.posts.ListGroup(ctx, group, c.Query("page"))
	if err != nil {
		RenderError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/group_list.html", gin.H{
		"Group":    group,
		"Page":     page,
		"BasePath": "/group/" + group.Slug + "/",
	})
}

func (h *PostHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.auth.UserByName(ctx, c.Param("username"))
	if err != nil {
		RenderError(c, err)
		return
	}
	page, err := h.posts.ListProfile(ctx, author, c.Query("page"))
	if err != nil {
		RenderError(c, err)
		return
	}
	counts, err := h.follows.Counts(ctx, author.ID)
	if err != nil {
		RenderError(c, err)
		return
	}
	following, err := h.follows.IsFollowing(ctx, middleware.CurrentUser(c), author)
	if err != nil {
		RenderError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Author":    author,
		"Page":      page,
		"Counts":    counts,
		"Following": following,
		"BasePath":  profilePath(author.Username),
		"ShowGroup": true,
	})
}

func (h *PostHandler) renderDetail(c *gin.Context, code int, id uint, commentText string, errs map[string]string) {
	detail, err := h.posts.Detail(c.Request.Context(), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	obj := gin.H{
		"Post":        detail.Post,
		"Comments":    detail.Comments,
		"AuthorPosts": detail.AuthorPosts,
		"CommentText": commentText,
	}
	if errs != nil {
		obj["Errors"] = errs
	}
	Render(c, code, "posts/post_detail.html", obj)
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	h.renderDetail(c, http.StatusOK, id, "", nil)
}

func (h *PostHandler) renderForm(c *gin.Context, code int, form services.PostInput, post *models.Post, errs map[string]string) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	obj := gin.H{
		"Form":   form,
		"Groups": groups,
		"IsEdit": post != nil,
		"Image":  "",
		"Active": "create",
	}
	if post != nil {
		obj["PostID"] = post.ID
		obj["Image"] = post.Image
		obj["Active"] = ""
	}
	if errs != nil {
		obj["Errors"] = errs
	}
	Render(c, code, "posts/create_post.html", obj)
}

// bindPost reads the post form including the optional image upload.
func bindPost(c *gin.Context) (services.PostInput, map[string]string) {
	var in services.PostInput
	if err := c.ShouldBind(&in); err != nil {
		in.Text = c.PostForm("text")
		return in, map[string]string{"group": "Select a valid choice. That choice is not one of the available choices."}
	}
	file, err := c.FormFile("image")
	switch {
	case err == nil:
		in.Image = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no upload
	default:
		return in, map[string]string{"image": "Upload a valid image."}
	}
	return in, nil
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	h.renderForm(c, http.StatusOK, services.PostInput{}, nil, nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	in, errs := bindPost(c)
	if errs != nil {
		h.renderForm(c, http.StatusBadRequest, in, nil, errs)
		return
	}

	if _, err := h.posts.Create(c.Request.Context(), user, in); err != nil {
		if fields, ok := validationFields(err); ok {
			h.renderForm(c, http.StatusBadRequest, in, nil, fields)
			return
		}
		RenderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, profilePath(user.Username))
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	post, err := h.posts.GetForEdit(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	form := services.PostInput{Text: post.Text}
	if post.GroupID != nil {
		form.GroupID = *post.GroupID
	}
	h.renderForm(c, http.StatusOK, form, post, nil)
}

// Update saves an edit. Only the author gets past GetForEdit; everyone else
// is sent to the login page and the post stays as it was.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	post, err := h.posts.GetForEdit(ctx, user, id)
	if err != nil {
		RenderError(c, err)
		return
	}

	in, errs := bindPost(c)
	if errs != nil {
		h.renderForm(c, http.StatusBadRequest, in, post, errs)
		return
	}

	if _, err := h.posts.Edit(ctx, user, id, in); err != nil {
		if fields, ok := validationFields(err); ok {
			h.renderForm(c, http.StatusBadRequest, in, post, fields)
			return
		}
		RenderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(id))
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if _, err := h.posts.Delete(c.Request.Context(), user, id); err != nil {
		RenderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profilePath(user.Username))
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	var in services.CommentInput
	_ = c.ShouldBind(&in)

	if _, err := h.comments.Add(c.Request.Context(), middleware.CurrentUser(c), id, in); err != nil {
		if fields, ok := validationFields(err); ok {
			h.renderDetail(c, http.StatusBadRequest, id, in.Text, fields)
			return
		}
		RenderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postPath(id))
}

func (h *PostHandler) FollowIndex(c *gin.Context) {
	page, err := h.posts.Feed(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		RenderError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/follow.html", gin.H{
		"Page":      page,
		"BasePath":  "/follow/",
		"ShowGroup": true,
		"Active":    "follow",
	})
}

func (h *PostHandler) ProfileFollow(c *gin.Context) {
	username := c.Param("username")
	_, err := h.follows.Follow(c.Request.Context(), middleware.CurrentUser(c), username)
	if err != nil && !errors.Is(err, services.ErrFollowSelf) {
		RenderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profilePath(username))
}

func (h *PostHandler) ProfileUnfollow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		RenderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profilePath(username))
}
