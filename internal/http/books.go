package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/catalog"
	"github.com/mrlokans/bookshelf/internal/logger"
)

type BooksController struct {
	catalog CatalogService
	log     *logger.Logger
}

func NewBooksController(catalog CatalogService, log *logger.Logger) *BooksController {
	return &BooksController{
		catalog: catalog,
		log:     log.With("controller", "books"),
	}
}

// CreateBookRequest is the body of POST /api/books, as JSON or form data.
type CreateBookRequest struct {
	Title string `json:"title" form:"title"`
}

// AttachCommentRequest is the body of POST /api/books/:id, as JSON or form data.
type AttachCommentRequest struct {
	Comment string `json:"comment" form:"comment"`
}

// CreatedBookResponse is returned by POST /api/books.
type CreatedBookResponse struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// ListBooks returns every book with its comments.
// GET /api/books
func (controller *BooksController) ListBooks(c *gin.Context) {
	views, err := controller.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondCatalogError(c, controller.log, err, "list books")
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateBook adds a book.
// POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	controller.bind(c, &req)

	book, err := controller.catalog.CreateBook(c.Request.Context(), req.Title)
	if err != nil {
		respondCatalogError(c, controller.log, err, "create book")
		return
	}
	c.JSON(http.StatusOK, CreatedBookResponse{ID: book.ID, Title: book.Title})
}

// DeleteAllBooks empties the catalog.
// DELETE /api/books
func (controller *BooksController) DeleteAllBooks(c *gin.Context) {
	if err := controller.catalog.DeleteAllBooks(c.Request.Context()); err != nil {
		respondCatalogError(c, controller.log, err, "delete all books")
		return
	}
	c.String(http.StatusOK, msgAllDeleted)
}

// GetBook returns one book with its comments.
// GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	view, err := controller.catalog.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCatalogError(c, controller.log, err, "get book")
		return
	}
	c.JSON(http.StatusOK, view)
}

// AttachComment adds a comment to a book and returns the updated book.
// POST /api/books/:id
func (controller *BooksController) AttachComment(c *gin.Context) {
	var req AttachCommentRequest
	controller.bind(c, &req)

	view, err := controller.catalog.AttachComment(c.Request.Context(), c.Param("id"), req.Comment)
	if err != nil {
		respondCatalogError(c, controller.log, err, "attach comment")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteBook removes a book and its comments.
// DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	outcome, err := controller.catalog.DeleteBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCatalogError(c, controller.log, err, "delete book")
		return
	}
	if outcome == catalog.OutcomeNotFound {
		c.String(http.StatusNotFound, msgNoBook)
		return
	}
	c.String(http.StatusOK, msgDeleted)
}

// bind fills req from the body. An unreadable body leaves req empty, so the
// catalog answers with its missing-field message.
func (controller *BooksController) bind(c *gin.Context, req any) {
	if err := c.ShouldBind(req); err != nil {
		controller.log.Debug("Ignoring unreadable request body",
			"path", c.FullPath(),
			"content_type", c.ContentType(),
			"error", err)
	}
}
