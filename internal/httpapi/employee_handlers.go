package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

const dateLayout = "2006-01-02"

type createEmployeeRequest struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	JobTitle  string  `json:"job_title" validate:"required,max=100"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Salary    float64 `json:"salary" validate:"required,gt=0"`
	Address   string  `json:"address" validate:"max=255"`
	Phone     string  `json:"phone" validate:"max=20"`
}

type updateEmployeeRequest struct {
	UserID    *string  `json:"user_id" validate:"omitempty,uuid"`
	JobTitle  *string  `json:"job_title" validate:"omitempty,max=100"`
	StartDate *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Salary    *float64 `json:"salary" validate:"omitempty,gt=0"`
	Address   *string  `json:"address" validate:"omitempty,max=255"`
	Phone     *string  `json:"phone" validate:"omitempty,max=20"`
}

// salaryToCents accepts amounts with at most two decimal places.
func salaryToCents(amount float64) (int64, error) {
	cents := math.Round(amount * 100)
	if math.Abs(amount*100-cents) > 1e-6 {
		return 0, fmt.Errorf("%w: salary must have at most 2 decimal places", auth.ErrInvalidInput)
	}
	if cents <= 0 || cents > 1e15 {
		return 0, fmt.Errorf("%w: salary is out of range", auth.ErrInvalidInput)
	}
	return int64(cents), nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date must use the %s format", auth.ErrInvalidInput, dateLayout)
	}
	return t, nil
}

func (a *API) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if !a.bind(w, r, &req) {
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	cents, err := salaryToCents(req.Salary)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	emp, err := a.svc.Employees.CreateEmployee(r.Context(), auth.EmployeeInput{
		UserID:      req.UserID,
		JobTitle:    req.JobTitle,
		StartDate:   start,
		SalaryCents: cents,
		Address:     req.Address,
		Phone:       req.Phone,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "employees.create", "employee", emp.ID, map[string]any{"user_id": emp.UserID})
	w.Header().Set("Location", "/employees/"+emp.ID)
	writeJSON(w, http.StatusCreated, emp)
}

func (a *API) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := a.svc.Employees.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emps)
}

func (a *API) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	emp, err := a.svc.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (a *API) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	var req updateEmployeeRequest
	if !a.bind(w, r, &req) {
		return
	}
	upd := auth.EmployeeUpdate{
		UserID:   req.UserID,
		JobTitle: req.JobTitle,
		Address:  req.Address,
		Phone:    req.Phone,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		upd.StartDate = &start
	}
	if req.Salary != nil {
		cents, err := salaryToCents(*req.Salary)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		upd.SalaryCents = &cents
	}
	emp, err := a.svc.Employees.UpdateEmployee(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "employees.update", "employee", emp.ID, nil)
	writeJSON(w, http.StatusOK, emp)
}

func (a *API) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	if err := a.svc.Employees.DeleteEmployee(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "employees.delete", "employee", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
