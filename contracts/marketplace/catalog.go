package marketplace

import (
	"go.dedis.ch/bazaar/core/store"
	"golang.org/x/xerrors"
)

// catalog owns the products, keyed by their sequential id.
type catalog struct{}

// publish appends the product to the catalog and returns its id. The caller
// is expected to have passed the guard.
func (catalog) publish(snap store.Snapshot, seller Address, spec ProductSpec) (uint32, error) {
	id, err := nextIndex(snap, productsCount)
	if err != nil {
		return 0, err
	}

	product := Product{
		ID:          id,
		Name:        spec.Name,
		Description: spec.Description,
		Price:       spec.Price,
		Quantity:    spec.Quantity,
		Category:    spec.Category,
		Seller:      seller,
	}

	err = writeRecord(snap, productKey(id), product)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (catalog) get(snap store.Readable, id uint32) (Product, error) {
	var product Product

	found, err := readRecord(snap, productKey(id), &product)
	if err != nil {
		return Product{}, err
	}

	if !found {
		return Product{}, xerrors.Errorf("product %d: %w", id, ErrProductNotFound)
	}

	return product, nil
}

// reserve takes the quantity from the stock of the product and returns the
// seller. The stock is untouched on failure.
func (c catalog) reserve(snap store.Snapshot, id uint32, quantity uint64) (Address, error) {
	product, err := c.get(snap, id)
	if err != nil {
		return "", err
	}

	if product.Quantity < quantity {
		return "", xerrors.Errorf("product %d has %d left but %d requested: %w",
			id, product.Quantity, quantity, ErrInsufficientQuantity)
	}

	product.Quantity -= quantity

	err = writeRecord(snap, productKey(id), product)
	if err != nil {
		return "", err
	}

	return product.Seller, nil
}

// release gives the quantity back to the stock of the product.
func (c catalog) release(snap store.Snapshot, id uint32, quantity uint64) error {
	product, err := c.get(snap, id)
	if err != nil {
		return err
	}

	product.Quantity += quantity

	return writeRecord(snap, productKey(id), product)
}

func (catalog) listBySeller(snap store.Readable, seller Address) *ProductIterator {
	return newProductIterator(snap, func(p Product) bool {
		return p.Seller == seller
	})
}

func (catalog) all(snap store.Readable) *ProductIterator {
	return newProductIterator(snap, func(Product) bool { return true })
}

// ProductIterator is a lazy iterator over the catalog in the order of
// publication. The products are read from the snapshot one at a time, and only
// those that pass the filter are returned. It can be restarted with Reset.
type ProductIterator struct {
	snap   store.Readable
	filter func(Product) bool
	index  uint32
	count  uint32
	next   *Product
	err    error
}

func newProductIterator(snap store.Readable, filter func(Product) bool) *ProductIterator {
	iter := &ProductIterator{
		snap:   snap,
		filter: filter,
	}

	iter.Reset()

	return iter
}

// HasNext returns true if a product is available.
func (it *ProductIterator) HasNext() bool {
	if it.next != nil {
		return true
	}

	for it.err == nil && it.index < it.count {
		product, err := catalog{}.get(it.snap, it.index)
		if err != nil {
			it.err = err
			return false
		}

		it.index++

		if it.filter(product) {
			it.next = &product
			return true
		}
	}

	return false
}

// GetNext returns the next product, or nil if the iteration is over.
func (it *ProductIterator) GetNext() *Product {
	if !it.HasNext() {
		return nil
	}

	product := it.next
	it.next = nil

	return product
}

// Err returns the error that stopped the iteration, if any.
func (it *ProductIterator) Err() error {
	return it.err
}

// Reset restarts the iteration from the first product. The length of the
// catalog is read again.
func (it *ProductIterator) Reset() {
	it.index = 0
	it.next = nil
	it.count, it.err = readCount(it.snap, productsCount)
}

// Collect returns the remaining products of the iteration.
func (it *ProductIterator) Collect() ([]Product, error) {
	products := []Product{}

	for it.HasNext() {
		products = append(products, *it.GetNext())
	}

	return products, it.Err()
}
