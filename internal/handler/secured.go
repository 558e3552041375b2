package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/handler/dto"
)

// SecuredCrudService is the service surface of an owned resource.
type SecuredCrudService[ID comparable, In, Out any] interface {
	Create(ctx context.Context, user auth.AuthenticatedUser, in In) (Out, error)
	ReadAllByQuery(ctx context.Context, user auth.AuthenticatedUser, query url.Values) ([]Out, error)
	Read(ctx context.Context, user auth.AuthenticatedUser, id ID) (Out, error)
	Update(ctx context.Context, user auth.AuthenticatedUser, id ID, in In) (Out, error)
	Delete(ctx context.Context, user auth.AuthenticatedUser, id ID) error
}

// SecuredCrudHandler serves the five CRUD routes of an owned resource on
// behalf of the authenticated caller.
type SecuredCrudHandler[ID comparable, In Validatable, Out Identified[ID]] struct {
	cfg ResourceConfig[ID]
	svc SecuredCrudService[ID, In, Out]
}

// NewSecuredCrudHandler creates a SecuredCrudHandler.
func NewSecuredCrudHandler[ID comparable, In Validatable, Out Identified[ID]](cfg ResourceConfig[ID], svc SecuredCrudService[ID, In, Out]) *SecuredCrudHandler[ID, In, Out] {
	return &SecuredCrudHandler[ID, In, Out]{cfg: cfg, svc: svc}
}

// Routes registers the handlers on r. Authenticate must run first.
func (h *SecuredCrudHandler[ID, In, Out]) Routes(r chi.Router) {
	a := h.cfg.Advice
	r.Post("/", a.Handle(h.Create))
	r.Get("/", a.Handle(h.ReadAll))
	r.Get("/{id}", a.Handle(h.Read))
	r.Put("/{id}", a.Handle(h.Update))
	r.Delete("/{id}", a.Handle(h.Delete))
}

// Create handles POST {base}. The caller becomes the owner.
func (h *SecuredCrudHandler[ID, In, Out]) Create(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	in, err := decodeInput[In](w, r, dto.OpCreate)
	if err != nil {
		return err
	}
	out, err := h.svc.Create(r.Context(), user, in)
	if err != nil {
		return err
	}
	w.Header().Set("Location", h.cfg.location(out.GetID()))
	writeJSON(w, http.StatusCreated, out)
	return nil
}

// ReadAll handles GET {base}, filtered by the query string.
func (h *SecuredCrudHandler[ID, In, Out]) ReadAll(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	list, err := h.svc.ReadAllByQuery(r.Context(), user, r.URL.Query())
	if err != nil {
		return err
	}
	writeList(w, list)
	return nil
}

// Read handles GET {base}/{id}.
func (h *SecuredCrudHandler[ID, In, Out]) Read(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	out, err := h.svc.Read(r.Context(), user, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// Update handles PUT {base}/{id}.
func (h *SecuredCrudHandler[ID, In, Out]) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	in, err := decodeInput[In](w, r, dto.OpUpdate)
	if err != nil {
		return err
	}
	out, err := h.svc.Update(r.Context(), user, id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// Delete handles DELETE {base}/{id}.
func (h *SecuredCrudHandler[ID, In, Out]) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	id, err := h.cfg.pathID(r)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
