package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"tailcart/cart"
	"tailcart/catalog"
	"tailcart/faults"
	"tailcart/flow"
	"tailcart/gateway"
	"tailcart/models"
	"tailcart/rdx"
	"tailcart/session"
)

// Config tunes one engine instance.
type Config struct {
	PageSize        int
	CatalogCacheTTL time.Duration
}

// Engine bundles the three stores for one owner session. The stores share
// the gateway and feed one change sink.
type Engine struct {
	Session session.Context
	Catalog *catalog.Store
	Cart    *cart.Store
	Flow    *flow.Flow

	remote   gateway.Remote
	cacheTTL time.Duration
}

// New wires the stores for a session. sink receives every change event
// from every store; pass nil when nobody listens.
func New(sess session.Context, remote gateway.Remote, cfg Config, sink func(models.ChangeEvent)) *Engine {
	if cfg.CatalogCacheTTL <= 0 {
		cfg.CatalogCacheTTL = 5 * time.Minute
	}
	cat := catalog.NewStore(cfg.PageSize)
	crt := cart.NewStore(sess.OwnerID, remote)
	fl := flow.New(crt)
	if sink != nil {
		cat.Subscribe(sink)
		crt.Subscribe(sink)
		fl.Subscribe(sink)
	}
	return &Engine{
		Session:  sess,
		Catalog:  cat,
		Cart:     crt,
		Flow:     fl,
		remote:   remote,
		cacheTTL: cfg.CatalogCacheTTL,
	}
}

// ReloadCatalog loads the product set, serving from the redis cache when
// it is warm. force drops the cached list first so the upstream is always
// consulted.
func (e *Engine) ReloadCatalog(ctx context.Context, force bool) error {
	if force {
		rdx.InvalidateProducts(ctx)
	} else if products, ok := rdx.CachedProducts(ctx); ok {
		e.Catalog.Load(products)
		return nil
	}
	products, err := e.remote.ListProducts(ctx)
	if err != nil {
		return err
	}
	rdx.CacheProducts(ctx, products, e.cacheTTL)
	e.Catalog.Load(products)
	return nil
}

// StartFlow begins an add-to-cart flow for a catalog product.
func (e *Engine) StartFlow(productID int) error {
	product, ok := e.Catalog.ProductByID(productID)
	if !ok {
		return faults.Validation("unknown product %d", productID)
	}
	return e.Flow.Start(e.Session, product)
}

// Registry hands out the per-owner engine, building it on first use.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
	remote  gateway.Remote
	cfg     Config
	sink    func(owner string, ev models.ChangeEvent)
}

// NewRegistry builds an empty registry. sink receives every change event
// tagged with the owning session's id.
func NewRegistry(remote gateway.Remote, cfg Config, sink func(owner string, ev models.ChangeEvent)) *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
		remote:  remote,
		cfg:     cfg,
		sink:    sink,
	}
}

// Get returns the owner's engine, creating and priming it on first use.
func (r *Registry) Get(ctx context.Context, bearer string) (*Engine, error) {
	claims, err := session.ParseToken(bearer)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.engines[claims.UserID]; ok {
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	sess, err := session.Build(ctx, bearer, r.remote)
	if err != nil {
		return nil, err
	}

	var sink func(models.ChangeEvent)
	if r.sink != nil {
		owner := sess.OwnerID
		sink = func(ev models.ChangeEvent) { r.sink(owner, ev) }
	}
	e := New(sess, r.remote, r.cfg, sink)

	// Prime both stores; either failing leaves an empty store the UI can
	// reload explicitly.
	if err := e.ReloadCatalog(ctx, false); err != nil {
		log.Printf("engine: initial catalog load for %s failed: %v", sess.OwnerID, err)
	}
	done := make(chan error, 1)
	e.Cart.Refresh(func(err error) { done <- err })
	if err := <-done; err != nil {
		log.Printf("engine: initial cart refresh for %s failed: %v", sess.OwnerID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.engines[sess.OwnerID]; ok {
		// lost the race; keep the first engine
		return existing, nil
	}
	r.engines[sess.OwnerID] = e
	return e, nil
}

// Drop forgets an owner's engine, for sign-out.
func (r *Registry) Drop(owner string) {
	r.mu.Lock()
	delete(r.engines, owner)
	r.mu.Unlock()
}
