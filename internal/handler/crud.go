package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/niolikon/taskboard/internal/handler/dto"
	"github.com/niolikon/taskboard/internal/middleware"
)

// CrudService is the service surface of an unowned resource.
type CrudService[ID comparable, In, Out any] interface {
	Create(ctx context.Context, in In) (Out, error)
	ReadAll(ctx context.Context) ([]Out, error)
	Read(ctx context.Context, id ID) (Out, error)
	Update(ctx context.Context, id ID, in In) (Out, error)
	Delete(ctx context.Context, id ID) error
}

// ResourceConfig describes how a resource is exposed.
type ResourceConfig[ID any] struct {
	// BasePath is the collection path, e.g. "/api/labels". It prefixes Location.
	BasePath string
	// ParseID converts the {id} path parameter.
	ParseID func(raw string) (ID, error)
	Advice  *middleware.Advice
}

func (c ResourceConfig[ID]) pathID(r *http.Request) (ID, error) {
	id, err := c.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		var zero ID
		return zero, ErrInvalidID.Wrap(err)
	}
	return id, nil
}

func (c ResourceConfig[ID]) location(id ID) string {
	return fmt.Sprintf("%s/%v", c.BasePath, id)
}

// CrudHandler serves the five CRUD routes of an unowned resource.
type CrudHandler[ID comparable, In Validatable, Out Identified[ID]] struct {
	cfg ResourceConfig[ID]
	svc CrudService[ID, In, Out]
}

// NewCrudHandler creates a CrudHandler.
func NewCrudHandler[ID comparable, In Validatable, Out Identified[ID]](cfg ResourceConfig[ID], svc CrudService[ID, In, Out]) *CrudHandler[ID, In, Out] {
	return &CrudHandler[ID, In, Out]{cfg: cfg, svc: svc}
}

// Routes registers the handlers on r, relative to the collection path.
func (h *CrudHandler[ID, In, Out]) Routes(r chi.Router) {
	a := h.cfg.Advice
	r.Post("/", a.Handle(h.Create))
	r.Get("/", a.Handle(h.ReadAll))
	r.Get("/{id}", a.Handle(h.Read))
	r.Put("/{id}", a.Handle(h.Update))
	r.Delete("/{id}", a.Handle(h.Delete))
}

// Create handles POST {base}.
func (h *CrudHandler[ID, In, Out]) Create(w http.ResponseWriter, r *http.Request) error {
	in, err := decodeInput[In](w, r, dto.OpCreate)
	if err != nil {
		return err
	}
	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return err
	}
	w.Header().Set("Location", h.cfg.location(out.GetID()))
	writeJSON(w, http.StatusCreated, out)
	return nil
}

// ReadAll handles GET {base}.
func (h *CrudHandler[ID, In, Out]) ReadAll(w http.ResponseWriter, r *http.Request) error {
	list, err := h.svc.ReadAll(r.Context())
	if err != nil {
		return err
	}
	writeList(w, list)
	return nil
}

// Read handles GET {base}/{id}.
func (h *CrudHandler[ID, In, Out]) Read(w http.ResponseWriter, r *http.Request) error {
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	out, err := h.svc.Read(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// Update handles PUT {base}/{id}.
func (h *CrudHandler[ID, In, Out]) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	in, err := decodeInput[In](w, r, dto.OpUpdate)
	if err != nil {
		return err
	}
	out, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// Delete handles DELETE {base}/{id}.
func (h *CrudHandler[ID, In, Out]) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// writeList never encodes a nil slice as null.
func writeList[Out any](w http.ResponseWriter, list []Out) {
	if list == nil {
		list = []Out{}
	}
	writeJSON(w, http.StatusOK, list)
}
