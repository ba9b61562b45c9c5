package query

import (
	"errors"
	"math"
)

// ---------- Tipos de paginación / ordenamiento ----------

var (
	ErrInvalidPage    = errors.New("page must be greater than or equal to 1")
	ErrInvalidPerPage = errors.New("per_page must be greater than or equal to 0")
	ErrPageOutOfRange = errors.New("page is out of range for the requested per_page")
)

// PageRequest agrupa paginación, orden y modo de combinación de filtros.
// PerPage 0 significa sin límite.
type PageRequest struct {
	Page    int    `form:"page" json:"page"`
	PerPage int    `form:"per_page" json:"per_page"`
	Sort    string `form:"sort" json:"sort,omitempty"`
	IsDesc  bool   `form:"is_desc" json:"is_desc"`
	UseOr   bool   `form:"use_or" json:"use_or"`
}

// Validate comprueba los límites de la petición.
func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.PerPage < 0 {
		return ErrInvalidPerPage
	}
	// El desplazamiento (Page-1)*PerPage debe caber en un int.
	if p.PerPage > 0 && p.Page-1 > math.MaxInt/p.PerPage {
		return ErrPageOutOfRange
	}
	return nil
}

// Limit devuelve el tamaño de página; 0 es ilimitado.
func (p PageRequest) Limit() int { return p.PerPage }

// Offset se calcula siempre, aunque PerPage sea 0 (y entonces vale 0).
func (p PageRequest) Offset() int { return (p.Page - 1) * p.PerPage }

// Page es el resultado paginado. Total cuenta las filas que cumplen los
// filtros antes de aplicar límite y desplazamiento.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Slice aplica límite y desplazamiento a una lista ya filtrada y ordenada.
func Slice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset < 0 {
		offset = 0
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
