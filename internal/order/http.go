package order

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

// ProductSource resolves current catalog prices.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type Server struct {
	Store   Store
	Catalog ProductSource
	Log     *zap.Logger

	now func() time.Time
}

type ItemReq struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Qty       int    `json:"qty" validate:"gte=1,lte=1000"`
}

type createReq struct {
	Items []ItemReq `json:"items" validate:"required,min=1,max=100,dive"`
}

func (s *Server) CreateHandler() http.HandlerFunc { return s.create }
func (s *Server) GetHandler() http.HandlerFunc    { return s.get }
func (s *Server) ListHandler() http.HandlerFunc   { return s.list }

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if fields := kit.Validate(req); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad items", fields)
		return
	}

	lines, total, err := s.price(r.Context(), req.Items)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	o := Order{
		ID:        "o_" + uuid.NewString(),
		UserID:    u.ID,
		Items:     lines,
		Total:     total,
		Status:    StatusNew,
		CreatedAt: s.clock().UTC(),
	}

	if err := s.Store.Create(r.Context(), o); err != nil {
		if isTimeoutErr(err) {
			kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
			return
		}
		s.log().Error("store create order failed", zap.Error(err), zap.String("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.log().Info("order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", u.ID),
		zap.Int("lines", len(o.Items)),
		zap.String("total", o.Total.String()),
	)
	kit.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	id := chi.URLParam(r, "id")
	o, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.log().Error("store get order failed", zap.Error(err), zap.String("order_id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if o.UserID != u.ID {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	orders, err := s.Store.ListByUser(r.Context(), u.ID)
	if err != nil {
		s.log().Error("store list orders failed", zap.Error(err), zap.String("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, orders)
}

var (
	errDuplicateItem   = errors.New("duplicate product_id")
	errInvalidProduct  = errors.New("invalid product_id")
	errCatalogDown     = errors.New("catalog unavailable")
	errCatalogUpstream = errors.New("catalog error")
)

type itemError struct {
	err       error
	productID string
}

func (e *itemError) Error() string { return e.err.Error() + ": " + e.productID }
func (e *itemError) Unwrap() error { return e.err }

// price re-resolves every line against the catalog; client supplied prices
// are never trusted.
func (s *Server) price(ctx context.Context, items []ItemReq) ([]Line, decimal.Decimal, error) {
	seen := make(map[string]struct{}, len(items))
	lines := make([]Line, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if _, dup := seen[pid]; dup {
			return nil, decimal.Zero, &itemError{errDuplicateItem, pid}
		}
		seen[pid] = struct{}{}

		p, err := s.Catalog.GetProduct(ctx, pid)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrNotFound):
			return nil, decimal.Zero, &itemError{errInvalidProduct, pid}
		case errors.Is(err, catalog.ErrUnavailable):
			return nil, decimal.Zero, errCatalogDown
		default:
			s.log().Warn("catalog error", zap.Error(err), zap.String("product_id", pid))
			return nil, decimal.Zero, errCatalogUpstream
		}

		line := Line{ProductID: pid, Name: p.Name, Qty: it.Qty, UnitPrice: p.EffectivePrice()}
		lines = append(lines, line)
		total = total.Add(line.Total())
	}

	return lines, total, nil
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *itemError
	var details any
	if errors.As(err, &ie) {
		details = map[string]any{"product_id": ie.productID}
	}

	switch {
	case errors.Is(err, errDuplicateItem):
		kit.WriteError(w, r, http.StatusBadRequest, "duplicate product_id", details)
	case errors.Is(err, errInvalidProduct):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", details)
	case errors.Is(err, errCatalogDown):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, errCatalogUpstream):
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
