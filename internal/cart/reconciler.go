// Package cart owns the authoritative in-memory cart for each session and
// keeps it reconciled against the remote cart service, with the durable
// local store as offline fallback. The remote copy wins whenever it can be
// reached; the local mirror exists so the user can keep shopping when it
// cannot.
package cart

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/francoabl/HuertoHogar/internal/domain"
	"github.com/francoabl/HuertoHogar/internal/gateway"
	"github.com/francoabl/HuertoHogar/internal/store"
)

// RemoteGateway is the cart REST resource. Mutations return the server's
// full item list, which the reconciler adopts as the new snapshot.
type RemoteGateway interface {
	Get(ctx context.Context, token string) ([]domain.CartItem, error)
	Add(ctx context.Context, token string, productID int64, quantity int) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, token string, productID int64, quantity int) ([]domain.CartItem, error)
	Remove(ctx context.Context, token string, productID int64) ([]domain.CartItem, error)
	Clear(ctx context.Context, token string) error
}

// TokenSource yields the session's auth token, if any. The auth subsystem
// owns tokens; the reconciler only asks whether one exists right now.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Reconciler is the single writer of one session's cart snapshot.
type Reconciler struct {
	sessionID string
	tokens    TokenSource
	remote    RemoteGateway
	local     store.Store

	mu      sync.Mutex
	items   []domain.CartItem
	version uint64
}

func NewReconciler(sessionID string, tokens TokenSource, remote RemoteGateway, local store.Store) *Reconciler {
	return &Reconciler{
		sessionID: sessionID,
		tokens:    tokens,
		remote:    remote,
		local:     local,
	}
}

// MutationResult tells the caller whether a mutation was served by the
// remote cart or by the offline fallback.
type MutationResult struct {
	Items   []domain.CartItem
	Offline bool
}

// Load establishes the snapshot. Remote wins when a token is present; a
// connectivity failure degrades to the local mirror; an application error
// (expired session, validation) is surfaced, never papered over with stale
// local data.
func (r *Reconciler) Load(ctx context.Context) error {
	token, ok := r.tokens.Token(ctx)
	if !ok {
		return r.loadLocal(ctx)
	}

	items, err := r.remote.Get(ctx, token)
	if err != nil {
		if gateway.IsConnectivity(err) {
			log.Printf("cart load for %s: remote unreachable, using local mirror: %v", r.sessionID, err)
			return r.loadLocal(ctx)
		}
		return err
	}

	r.replace(domain.NormalizeItems(items))
	return nil
}

// loadLocal reads the durable mirror. A corrupt payload is discarded and the
// session starts with an empty cart rather than crashing on every request.
func (r *Reconciler) loadLocal(ctx context.Context) error {
	data, err := r.local.Get(ctx, store.CartKey(r.sessionID))
	if err == store.ErrNotFound {
		r.replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("cart load for %s: corrupt local snapshot, resetting: %v", r.sessionID, err)
		if delErr := r.local.Delete(ctx, store.CartKey(r.sessionID)); delErr != nil {
			log.Printf("cart load for %s: drop corrupt snapshot: %v", r.sessionID, delErr)
		}
		r.replace(nil)
		return nil
	}

	r.replace(domain.NormalizeItems(items))
	return nil
}

// AddItem puts a product in the cart. Connectivity problems fall back to a
// local merge and never fail the call; real errors from the cart service
// come back unchanged.
func (r *Reconciler) AddItem(ctx context.Context, p domain.Product, quantity int) (*MutationResult, error) {
	item := domain.NewCartItem(p, quantity)

	token, ok := r.tokens.Token(ctx)
	if !ok {
		r.applyAdd(item)
		r.persist(ctx)
		return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
	}

	base := r.currentVersion()
	items, err := r.remote.Add(ctx, token, item.ID, item.Quantity)
	if err != nil {
		if gateway.IsConnectivity(err) {
			r.applyAdd(item)
			r.persist(ctx)
			return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
		}
		return nil, err
	}

	r.adopt(domain.NormalizeItems(items), base)
	return &MutationResult{Items: r.Snapshot()}, nil
}

// RemoveItem drops a product from the cart, symmetric to AddItem.
func (r *Reconciler) RemoveItem(ctx context.Context, productID int64) (*MutationResult, error) {
	token, ok := r.tokens.Token(ctx)
	if !ok {
		r.applyRemove(productID)
		r.persist(ctx)
		return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
	}

	base := r.currentVersion()
	items, err := r.remote.Remove(ctx, token, productID)
	if err != nil {
		if gateway.IsConnectivity(err) {
			r.applyRemove(productID)
			r.persist(ctx)
			return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
		}
		return nil, err
	}

	r.adopt(domain.NormalizeItems(items), base)
	return &MutationResult{Items: r.Snapshot()}, nil
}

// SetQuantity updates an item's quantity. Zero or negative removes the item;
// the cart never stores a zero-quantity line.
func (r *Reconciler) SetQuantity(ctx context.Context, productID int64, quantity int) (*MutationResult, error) {
	if quantity <= 0 {
		return r.RemoveItem(ctx, productID)
	}

	token, ok := r.tokens.Token(ctx)
	if !ok {
		r.applySetQuantity(productID, quantity)
		r.persist(ctx)
		return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
	}

	base := r.currentVersion()
	items, err := r.remote.UpdateQuantity(ctx, token, productID, quantity)
	if err != nil {
		if gateway.IsConnectivity(err) {
			r.applySetQuantity(productID, quantity)
			r.persist(ctx)
			return &MutationResult{Items: r.Snapshot(), Offline: true}, nil
		}
		return nil, err
	}

	r.adopt(domain.NormalizeItems(items), base)
	return &MutationResult{Items: r.Snapshot()}, nil
}

// Clear empties the cart. The in-memory snapshot and the local mirror are
// cleared no matter what the remote call does.
func (r *Reconciler) Clear(ctx context.Context) error {
	if token, ok := r.tokens.Token(ctx); ok {
		if err := r.remote.Clear(ctx, token); err != nil {
			log.Printf("cart clear for %s: remote clear failed: %v", r.sessionID, err)
		}
	}

	r.mu.Lock()
	r.items = nil
	r.version++
	r.mu.Unlock()

	if err := r.local.Delete(ctx, store.CartKey(r.sessionID)); err != nil {
		log.Printf("cart clear for %s: erase local mirror: %v", r.sessionID, err)
	}
	return nil
}

func (r *Reconciler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.CountItems(r.items)
}

func (r *Reconciler) Total() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.TotalAmount(r.items)
}

func (r *Reconciler) Contains(productID int64) bool {
	return r.QuantityOf(productID) > 0
}

func (r *Reconciler) QuantityOf(productID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Snapshot returns a copy of the current item list.
func (r *Reconciler) Snapshot() []domain.CartItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartItem, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Reconciler) currentVersion() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// adopt replaces the snapshot with the server's list, unless a local
// mutation landed while the remote call was in flight. A stale response
// must not overwrite a newer state.
func (r *Reconciler) adopt(items []domain.CartItem, base uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != base {
		log.Printf("cart %s: dropping stale remote snapshot (version %d, now %d)", r.sessionID, base, r.version)
		return
	}
	r.items = items
}

// replace unconditionally installs a snapshot (initial load paths).
func (r *Reconciler) replace(items []domain.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.version++
}

func (r *Reconciler) applyAdd(item domain.CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i].Quantity += item.Quantity
			r.version++
			return
		}
	}
	r.items = append(r.items, item)
	r.version++
}

func (r *Reconciler) applyRemove(productID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, it := range r.items {
		if it.ID != productID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	r.version++
}

func (r *Reconciler) applySetQuantity(productID int64, quantity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == productID {
			r.items[i].Quantity = quantity
			r.version++
			return
		}
	}
}

// persist mirrors the snapshot to durable storage. The in-memory mutation
// already happened; a broken mirror is logged, not allowed to block the
// user.
func (r *Reconciler) persist(ctx context.Context) {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		log.Printf("cart %s: marshal snapshot: %v", r.sessionID, err)
		return
	}
	if err := r.local.Set(ctx, store.CartKey(r.sessionID), data); err != nil {
		log.Printf("cart %s: persist local mirror: %v", r.sessionID, err)
	}
}
