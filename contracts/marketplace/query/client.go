package query

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.dedis.ch/bazaar/contracts/marketplace"
	"go.dedis.ch/bazaar/core/ordering/api"
	"golang.org/x/xerrors"
)

// Client reads the marketplace of a node over HTTP.
type Client struct {
	base   string
	client *http.Client
}

// NewClient returns a client of the router served at the base URL.
func NewClient(base string, timeout time.Duration) Client {
	return Client{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// GetUser returns the profile of the address.
func (c Client) GetUser(addr marketplace.Address) (marketplace.User, error) {
	var user marketplace.User

	err := c.get("/users/"+url.PathEscape(string(addr)), &user)

	return user, err
}

// GetProduct returns the product of the id.
func (c Client) GetProduct(id uint32) (marketplace.Product, error) {
	var product marketplace.Product

	err := c.get("/products/"+strconv.FormatUint(uint64(id), 10), &product)

	return product, err
}

// GetOrder returns the order of the id.
func (c Client) GetOrder(id uint32) (marketplace.Order, error) {
	var order marketplace.Order

	err := c.get("/orders/"+strconv.FormatUint(uint64(id), 10), &order)

	return order, err
}

// ListOwnProducts returns the products published by the address.
func (c Client) ListOwnProducts(addr marketplace.Address) ([]marketplace.Product, error) {
	var msg ProductsJSON

	err := c.get("/products?seller="+url.QueryEscape(string(addr)), &msg)

	return msg.Products, err
}

func (c Client) get(path string, v interface{}) error {
	resp, err := c.client.Get(c.base + path)
	if err != nil {
		return xerrors.Errorf("failed to query: %v", err)
	}

	defer resp.Body.Close()

	return api.DecodeResponse(resp, v)
}
