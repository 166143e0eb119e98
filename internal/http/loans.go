package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/loans"
	"github.com/mrlokans/catalog/internal/validation"
)

type LoansController struct {
	loans LoanService
}

func NewLoansController(loans LoanService) *LoansController {
	return &LoansController{loans: loans}
}

type RenewRequest struct {
	DueBack *entities.Date `json:"due_back"`
}

type StatusRequest struct {
	Status     entities.LoanStatus `json:"status"`
	BorrowerID *uint               `json:"borrower_id"`
	DueBack    *entities.Date      `json:"due_back"`
}

// Mine handles GET /api/loans/mine: the caller's borrowed copies.
func (lc *LoansController) Mine(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	result, err := lc.loans.LoansForBorrower(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "borrower loans")
		return
	}
	c.JSON(http.StatusOK, result)
}

// All handles GET /api/loans: every copy on loan, for librarians.
func (lc *LoansController) All(c *gin.Context) {
	all, err := lc.loans.AllLoans(c.Request.Context(), currentUser(c))
	if err != nil {
		respondServiceError(c, err, "loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": all, "count": len(all)})
}

// Overdue handles GET /api/loans/overdue?as_of=YYYY-MM-DD.
func (lc *LoansController) Overdue(c *gin.Context) {
	asOf := lc.loans.Today()
	if raw := c.Query("as_of"); raw != "" {
		d, err := entities.ParseDate(raw)
		if err != nil {
			respondBadRequest(c, "invalid as_of date")
			return
		}
		asOf = d
	}
	overdue, err := lc.loans.OverdueLoans(c.Request.Context(), asOf)
	if err != nil {
		respondInternalError(c, err, "overdue loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"as_of": asOf, "loans": overdue, "count": len(overdue)})
}

// RenewForm handles GET /api/instances/:id/renew and returns the date the
// renewal form starts with.
func (lc *LoansController) RenewForm(c *gin.Context) {
	if _, ok := parseUUIDParam(c, "id"); !ok {
		return
	}
	c.JSON(http.StatusOK, RenewRequest{DueBack: ptr(lc.loans.DefaultRenewalDate())})
}

// Renew handles POST /api/instances/:id/renew.
func (lc *LoansController) Renew(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req RenewRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}

	var due entities.Date
	if req.DueBack != nil {
		due = *req.DueBack
	}
	inst, err := lc.loans.RenewLoan(c.Request.Context(), currentUser(c), id, due)
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusOK, inst)
}

// ChangeStatus handles POST /api/instances/:id/status.
func (lc *LoansController) ChangeStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}

	inst, err := lc.loans.ChangeStatus(c.Request.Context(), currentUser(c), id, loans.StatusChange{
		Status:     req.Status,
		BorrowerID: req.BorrowerID,
		DueBack:    req.DueBack,
	})
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusOK, inst)
}

func ptr[T any](v T) *T {
	return &v
}
