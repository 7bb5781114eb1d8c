package storefront

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/order"
	"Storefront/pkg/kit"
)

type ProductSource interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, token string, items []order.ItemReq) (order.Order, error)
}

type Server struct {
	Store   cart.Store
	Catalog ProductSource
	Orders  OrderSubmitter
	JWT     *auth.TokenMaker
	Log     *zap.Logger
	Metrics *Metrics
}

var errStoreUnavailable = errors.New("cart store unavailable")

type cartView struct {
	Lines   []cart.Line  `json:"lines"`
	Summary cart.Summary `json:"summary"`
}

func viewOf(l *cart.Ledger) cartView {
	lines := l.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{Lines: lines, Summary: l.Summary()}
}

type addItemReq struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
}

type updateItemReq struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type checkoutResp struct {
	Order   order.Order  `json:"order"`
	Summary cart.Summary `json:"summary"`
}

// ledger hydrates the session's ledger from the store. A snapshot that no
// longer decodes is replaced by an empty cart.
func (s *Server) ledger(ctx context.Context, sid string) (*cart.Ledger, error) {
	key := cart.KeyFor(sid)

	l, err := cart.Open(ctx, s.Store, key)
	switch {
	case err == nil:
		return l, nil
	case errors.Is(err, cart.ErrMalformedSnapshot):
		s.log().Warn("discarding malformed cart snapshot", zap.String("key", key), zap.Error(err))
		l = cart.New(s.Store, key)
		if err := l.Reset(ctx); err != nil {
			return nil, errors.Join(errStoreUnavailable, err)
		}
		s.Metrics.mutation(opReset)
		return l, nil
	default:
		return nil, errors.Join(errStoreUnavailable, err)
	}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	l, ok := s.open(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(l))
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if fields := kit.Validate(req); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", fields)
		return
	}

	l, ok := s.open(w, r)
	if !ok {
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), req.ProductID)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"product_id": req.ProductID})
		return
	case errors.Is(err, catalog.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	default:
		s.log().Warn("catalog error", zap.Error(err), zap.String("product_id", req.ProductID))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
		return
	}

	if err := l.AddItem(r.Context(), cartProduct(p)); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	s.Metrics.mutation(opAdd)
	kit.WriteJSON(w, http.StatusOK, viewOf(l))
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if fields := kit.Validate(req); fields != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", fields)
		return
	}

	l, ok := s.open(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	known := hasLine(l, id)
	if err := l.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	if known {
		s.Metrics.mutation(opUpdate)
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(l))
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	l, ok := s.open(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	known := hasLine(l, id)
	if err := l.RemoveItem(r.Context(), id); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	if known {
		s.Metrics.mutation(opRemove)
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(l))
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	tok, claims, ok := s.customer(r)
	if !ok {
		s.Metrics.checkout(outcomeUnauthorized)
		kit.WriteError(w, r, http.StatusUnauthorized, "login required", map[string]any{"redirect": "/login"})
		return
	}

	l, ok := s.open(w, r)
	if !ok {
		return
	}

	lines := l.Lines()
	if len(lines) == 0 {
		s.Metrics.checkout(outcomeEmpty)
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
		return
	}
	summary := l.Summary()

	items := make([]order.ItemReq, 0, len(lines))
	for _, ln := range lines {
		items = append(items, order.ItemReq{ProductID: ln.ProductID, Qty: ln.Quantity})
	}

	o, err := s.Orders.Submit(r.Context(), tok, items)
	if err != nil {
		s.writeCheckoutError(w, r, err, claims.UserID)
		return
	}

	if err := l.Clear(r.Context()); err != nil {
		s.log().Error("order placed but cart not cleared",
			zap.String("order_id", o.ID),
			zap.String("key", l.Key()),
			zap.Error(err),
		)
	}

	s.Metrics.checkout(outcomePlaced)
	s.log().Info("checkout completed",
		zap.String("order_id", o.ID),
		zap.String("user_id", claims.UserID),
		zap.String("final_total", summary.FinalTotal.String()),
	)
	kit.WriteJSON(w, http.StatusCreated, checkoutResp{Order: o, Summary: summary})
}

// customer returns the bearer token and its claims when the caller is a
// logged-in shopper.
func (s *Server) customer(r *http.Request) (string, auth.Claims, bool) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		return "", auth.Claims{}, false
	}
	c, err := s.JWT.Parse(tok)
	if err != nil || !c.IsCustomer() {
		return "", auth.Claims{}, false
	}
	return tok, c, true
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) (*cart.Ledger, bool) {
	sid := sessionID(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	l, err := s.ledger(ctx, sid)
	if err != nil {
		s.log().Error("open cart failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart store unavailable", nil)
		return nil, false
	}
	return l, true
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var ipe *cart.InvalidProductError
	switch {
	case errors.As(err, &ipe):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "invalid product", ipe.Fields)
	default:
		s.log().Error("cart mutation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart store unavailable", nil)
	}
}

func (s *Server) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error, userID string) {
	var re *order.RemoteError
	var details any
	if errors.As(err, &re) {
		details = re.Details
	}

	switch {
	case errors.Is(err, order.ErrRejected):
		s.Metrics.checkout(outcomeRejected)
		msg := "order rejected"
		if re != nil && re.Message != "" {
			msg = re.Message
		}
		kit.WriteError(w, r, http.StatusBadRequest, msg, details)
	case errors.Is(err, order.ErrUnauthorized):
		s.Metrics.checkout(outcomeUnauthorized)
		kit.WriteError(w, r, http.StatusUnauthorized, "login required", map[string]any{"redirect": "/login"})
	case errors.Is(err, order.ErrUnavailable):
		s.Metrics.checkout(outcomeFailed)
		s.log().Warn("order service unavailable", zap.Error(err), zap.String("user_id", userID))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "order service unavailable", nil)
	default:
		s.Metrics.checkout(outcomeFailed)
		s.log().Error("checkout failed", zap.Error(err), zap.String("user_id", userID))
		kit.WriteError(w, r, http.StatusBadGateway, "order service error", nil)
	}
}

func hasLine(l *cart.Ledger, productID string) bool {
	return slices.ContainsFunc(l.Lines(), func(ln cart.Line) bool { return ln.ProductID == productID })
}

func cartProduct(p catalog.Product) cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Image:    p.Image,
		Category: p.Category,
		Price:    p.Price,
		Discount: p.DiscountPrice,
	}
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
