// Package query serves a read-only view of the marketplace over HTTP. It reads
// the committed state of the host and never submits a transaction.
package query

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.dedis.ch/bazaar/contracts/marketplace"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// DefaultPath is the path under which a node mounts the router.
const DefaultPath = "/marketplace"

// Viewer provides a read-only snapshot of the committed state.
type Viewer interface {
	View(fn func(store.Snapshot) error) error
}

// UsersJSON is the JSON message of a list of users.
type UsersJSON struct {
	Users []marketplace.User `json:"users"`
}

// ProductsJSON is the JSON message of a list of products.
type ProductsJSON struct {
	Products []marketplace.Product `json:"products"`
}

// OrdersJSON is the JSON message of a list of orders.
type OrdersJSON struct {
	Orders []marketplace.Order `json:"orders"`
}

type handler struct {
	viewer   Viewer
	contract marketplace.Contract
}

// NewRouter returns the router of the marketplace endpoints:
//
//	GET /users
//	GET /users/{address}
//	GET /products[?seller=address]
//	GET /products/{id}
//	GET /orders
//	GET /orders/{id}
func NewRouter(viewer Viewer, contract marketplace.Contract) chi.Router {
	h := handler{
		viewer:   viewer,
		contract: contract,
	}

	router := chi.NewRouter()
	router.Get("/users", h.users)
	router.Get("/users/{address}", h.user)
	router.Get("/products", h.products)
	router.Get("/products/{id}", h.product)
	router.Get("/orders", h.orders)
	router.Get("/orders/{id}", h.order)

	return router
}

func (h handler) users(w http.ResponseWriter, r *http.Request) {
	var msg UsersJSON

	err := h.viewer.View(func(snap store.Snapshot) error {
		var err error
		msg.Users, err = h.contract.Users(snap)
		return err
	})

	reply(w, msg, err)
}

func (h handler) user(w http.ResponseWriter, r *http.Request) {
	addr, err := url.PathUnescape(chi.URLParam(r, "address"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, xerrors.Errorf("invalid address: %v", err))
		return
	}

	var user marketplace.User

	err = h.viewer.View(func(snap store.Snapshot) error {
		var err error
		user, err = h.contract.GetUser(snap, marketplace.Address(addr))
		return err
	})

	reply(w, user, err)
}

func (h handler) products(w http.ResponseWriter, r *http.Request) {
	seller := r.URL.Query().Get("seller")

	var msg ProductsJSON

	err := h.viewer.View(func(snap store.Snapshot) error {
		var err error
		if seller != "" {
			msg.Products, err = h.contract.ListOwnProducts(snap, marketplace.Address(seller)).Collect()
		} else {
			msg.Products, err = h.contract.Products(snap)
		}

		return err
	})

	reply(w, msg, err)
}

func (h handler) product(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err)
		return
	}

	var product marketplace.Product

	err = h.viewer.View(func(snap store.Snapshot) error {
		var err error
		product, err = h.contract.GetProduct(snap, id)
		return err
	})

	reply(w, product, err)
}

func (h handler) orders(w http.ResponseWriter, r *http.Request) {
	var msg OrdersJSON

	err := h.viewer.View(func(snap store.Snapshot) error {
		var err error
		msg.Orders, err = h.contract.Orders(snap)
		return err
	})

	reply(w, msg, err)
}

func (h handler) order(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err)
		return
	}

	var order marketplace.Order

	err = h.viewer.View(func(snap store.Snapshot) error {
		var err error
		order, err = h.contract.GetOrder(snap, id)
		return err
	})

	reply(w, order, err)
}

func parseID(r *http.Request) (uint32, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, xerrors.Errorf("invalid id: %v", err)
	}

	return uint32(id), nil
}

// reply writes the value, or the error with the status of its kind.
func reply(w http.ResponseWriter, v interface{}, err error) {
	if err == nil {
		api.WriteJSON(w, http.StatusOK, v)
		return
	}

	switch marketplace.KindOf(err) {
	case marketplace.ErrNotRegistered, marketplace.ErrProductNotFound, marketplace.ErrOrderNotFound:
		api.WriteError(w, http.StatusNotFound, err)
	default:
		api.WriteError(w, http.StatusInternalServerError, err)
	}
}
