package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClients struct {
	clients map[string]Client
}

func (f *fakeClients) GetClient(ctx context.Context, id string) (Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return Client{}, &NotFoundError{Kind: "client", ID: id}
	}
	return c, nil
}

type fakeOrders struct {
	orders    map[string]Order
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeOrders(os ...Order) *fakeOrders {
	m := make(map[string]Order, len(os))
	for _, o := range os {
		m[o.ID] = o
	}
	return &fakeOrders{orders: m}
}

func (f *fakeOrders) GetOrder(ctx context.Context, id string) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, &NotFoundError{Kind: "order", ID: id}
	}
	return o, nil
}

func (f *fakeOrders) InsertOrder(ctx context.Context, o Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrders) UpdateOrder(ctx context.Context, o Order) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.orders[o.ID]; !ok {
		return &NotFoundError{Kind: "order", ID: o.ID}
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrders) DeleteOrder(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.orders[id]; !ok {
		return &NotFoundError{Kind: "order", ID: id}
	}
	delete(f.orders, id)
	return nil
}

const (
	sellerAna  = "seller-ana"
	sellerBeto = "seller-beto"
)

func newManager(inv *fakeInventory, os *fakeOrders) *Manager {
	return &Manager{
		Clients: &fakeClients{clients: map[string]Client{
			"c1": {ID: "c1", Company: "Acme", SellerID: sellerAna},
			"c2": {ID: "c2", Company: "Initech", SellerID: sellerBeto},
			"c3": {ID: "c3", Company: "Globex", SellerID: sellerAna},
		}},
		Orders: os,
		Engine: &ReservationEngine{Inv: inv},
	}
}

func TestPlaceHappyPath(t *testing.T) {
	inv := newFakeInventory(
		Product{ID: "p1", Name: "Monitor", Stock: 10, PriceCents: 25000},
		Product{ID: "p2", Name: "Keyboard", Stock: 6, PriceCents: 7500},
	)
	os := newFakeOrders()
	m := newManager(inv, os)

	o, err := m.Place(context.Background(), Actor{ID: sellerAna}, "c1", []LineInput{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 3},
	})
	require.NoError(t, err)
	require.NotEmpty(t, o.ID)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, sellerAna, o.SellerID)
	require.Equal(t, "c1", o.ClientID)
	require.Equal(t, 2*25000+3*7500, o.TotalCents)
	require.Len(t, o.Items, 2)
	require.Equal(t, "Monitor", o.Items[0].Name)

	require.Equal(t, 8, inv.stockOf(t, "p1"))
	require.Equal(t, 3, inv.stockOf(t, "p2"))

	stored, err := os.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, o, stored)
}

func TestPlaceUnknownClient(t *testing.T) {
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 10})
	m := newManager(inv, newFakeOrders())

	_, err := m.Place(context.Background(), Actor{ID: sellerAna}, "ghost",
		[]LineInput{{ProductID: "p1", Qty: 1}})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "client", nf.Kind)
	require.Equal(t, 10, inv.stockOf(t, "p1"))
}

func TestPlaceForeignClientDenied(t *testing.T) {
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 10})
	os := newFakeOrders()
	m := newManager(inv, os)

	// c2 belongs to Beto; Ana may not order on their behalf
	_, err := m.Place(context.Background(), Actor{ID: sellerAna}, "c2",
		[]LineInput{{ProductID: "p1", Qty: 1}})
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 10, inv.stockOf(t, "p1"))
	require.Empty(t, os.orders)
}

func TestPlaceInsufficientStock(t *testing.T) {
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 2})
	os := newFakeOrders()
	m := newManager(inv, os)

	_, err := m.Place(context.Background(), Actor{ID: sellerAna}, "c1",
		[]LineInput{{ProductID: "p1", Qty: 3}})
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, 2, inv.stockOf(t, "p1"))
	require.Empty(t, os.orders)
}

func TestPlacePersistFailureReleasesStock(t *testing.T) {
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 10, PriceCents: 100})
	boom := errors.New("insert failed")
	os := newFakeOrders()
	os.insertErr = boom
	m := newManager(inv, os)

	_, err := m.Place(context.Background(), Actor{ID: sellerAna}, "c1",
		[]LineInput{{ProductID: "p1", Qty: 4}})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 10, inv.stockOf(t, "p1"))
}

func pendingOrder(id string, items ...OrderItem) Order {
	return Order{
		ID: id, ClientID: "c1", SellerID: sellerAna,
		Items: items, TotalCents: TotalCents(items), Status: StatusPending,
	}
}

func TestAmendReplacesLines(t *testing.T) {
	// o1 holds 3 of p1; stock already reflects that reservation
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(
		Product{ID: "p1", Name: "Monitor", Stock: 7, PriceCents: 25000},
		Product{ID: "p2", Name: "Keyboard", Stock: 5, PriceCents: 7500},
	)
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	o, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{
		Lines: []LineInput{
			{ProductID: "p1", Qty: 1},
			{ProductID: "p2", Qty: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1*25000+2*7500, o.TotalCents)

	// release 3 then reserve 1 -> net +2 on p1; p2 down by 2
	require.Equal(t, 9, inv.stockOf(t, "p1"))
	require.Equal(t, 3, inv.stockOf(t, "p2"))
	require.Equal(t, o, os.orders["o1"])
}

func TestAmendReserveFailureRestoresOldReservation(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(
		Product{ID: "p1", Name: "Monitor", Stock: 7, PriceCents: 25000},
		Product{ID: "p2", Name: "Keyboard", Stock: 1, PriceCents: 7500},
	)
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	before := os.orders["o1"]
	_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{
		Lines: []LineInput{{ProductID: "p2", Qty: 5}},
	})
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)

	// old reservation re-applied, order untouched
	require.Equal(t, 7, inv.stockOf(t, "p1"))
	require.Equal(t, 1, inv.stockOf(t, "p2"))
	require.Equal(t, before, os.orders["o1"])
}

func TestAmendStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to done", StatusPending, StatusDone, true},
		{"pending to cancel", StatusPending, StatusCancel, true},
		{"done is terminal", StatusDone, StatusPending, false},
		{"done cannot cancel", StatusDone, StatusCancel, false},
		{"cancel is terminal", StatusCancel, StatusPending, false},
		{"cancel cannot complete", StatusCancel, StatusDone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
			o := pendingOrder("o1", OrderItem{ProductID: "p1", Qty: 3})
			o.Status = tt.from
			os := newFakeOrders(o)
			m := newManager(inv, os)

			st := tt.to
			_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1",
				AmendRequest{Status: &st})
			if tt.allowed {
				require.NoError(t, err)
				require.Equal(t, tt.to, os.orders["o1"].Status)
			} else {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				require.Equal(t, tt.from, os.orders["o1"].Status)
			}
		})
	}
}

func TestAmendCancelReleasesStock(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7, PriceCents: 25000})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	st := StatusCancel
	o, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{Status: &st})
	require.NoError(t, err)
	require.Equal(t, StatusCancel, o.Status)
	require.Equal(t, 10, inv.stockOf(t, "p1"))
}

func TestAmendLinesOnTerminalOrderRejected(t *testing.T) {
	// a DONE order consumed its stock and a CANCEL order already released
	// it; swapping their lines must not release or reserve anything
	for _, status := range []Status{StatusDone, StatusCancel} {
		t.Run(string(status), func(t *testing.T) {
			held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
			inv := newFakeInventory(
				Product{ID: "p1", Name: "Monitor", Stock: 10, PriceCents: 25000},
				Product{ID: "p2", Name: "Keyboard", Stock: 5, PriceCents: 7500},
			)
			o := pendingOrder("o1", held)
			o.Status = status
			os := newFakeOrders(o)
			m := newManager(inv, os)

			before := os.orders["o1"]
			_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{
				Lines: []LineInput{{ProductID: "p2", Qty: 2}},
			})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, 10, inv.stockOf(t, "p1"))
			require.Equal(t, 5, inv.stockOf(t, "p2"))
			require.Equal(t, before, os.orders["o1"])
		})
	}
}

func TestAmendClientOnTerminalOrderRejected(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 10})
	o := pendingOrder("o1", held)
	o.Status = StatusDone
	os := newFakeOrders(o)
	m := newManager(inv, os)

	c3 := "c3" // also Ana's
	_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{ClientID: &c3})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "c1", os.orders["o1"].ClientID)
}

func TestAmendByNonOwnerDenied(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	before := os.orders["o1"]
	st := StatusDone
	_, err := m.Amend(context.Background(), Actor{ID: sellerBeto}, "o1", AmendRequest{Status: &st})
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, before, os.orders["o1"])
	require.Equal(t, 7, inv.stockOf(t, "p1"))
}

func TestAmendToForeignClientDenied(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	c2 := "c2" // Beto's client
	_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{ClientID: &c2})
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "c1", os.orders["o1"].ClientID)
}

func TestAmendMoveToOwnClient(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	c3 := "c3" // also Ana's
	o, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{ClientID: &c3})
	require.NoError(t, err)
	require.Equal(t, "c3", o.ClientID)
}

func TestCancelPendingReleasesStockAndDeletes(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	_, err := m.Cancel(context.Background(), Actor{ID: sellerAna}, "o1")
	require.NoError(t, err)
	require.Empty(t, os.orders)
	require.Equal(t, 10, inv.stockOf(t, "p1"))
}

func TestCancelDoneKeepsStock(t *testing.T) {
	// DONE consumed the stock; deleting the record must not refill it
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	o := pendingOrder("o1", held)
	o.Status = StatusDone
	os := newFakeOrders(o)
	m := newManager(inv, os)

	_, err := m.Cancel(context.Background(), Actor{ID: sellerAna}, "o1")
	require.NoError(t, err)
	require.Empty(t, os.orders)
	require.Equal(t, 7, inv.stockOf(t, "p1"))
}

func TestCancelByNonOwnerDenied(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	os := newFakeOrders(pendingOrder("o1", held))
	m := newManager(inv, os)

	_, err := m.Cancel(context.Background(), Actor{ID: sellerBeto}, "o1")
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)
	require.Len(t, os.orders, 1)
	require.Equal(t, 7, inv.stockOf(t, "p1"))
}

func TestCancelDeleteFailureReappliesReservation(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(Product{ID: "p1", Name: "Monitor", Stock: 7})
	boom := errors.New("delete failed")
	os := newFakeOrders(pendingOrder("o1", held))
	os.deleteErr = boom
	m := newManager(inv, os)

	_, err := m.Cancel(context.Background(), Actor{ID: sellerAna}, "o1")
	require.ErrorIs(t, err, boom)
	// released stock taken back, order still holds its reservation
	require.Equal(t, 7, inv.stockOf(t, "p1"))
}

func TestGetIsOwnershipGated(t *testing.T) {
	os := newFakeOrders(pendingOrder("o1"))
	m := newManager(newFakeInventory(), os)

	_, err := m.Get(context.Background(), Actor{ID: sellerBeto}, "o1")
	var pe *PermissionError
	require.ErrorAs(t, err, &pe)

	o, err := m.Get(context.Background(), Actor{ID: sellerAna}, "o1")
	require.NoError(t, err)
	require.Equal(t, "o1", o.ID)
}

func TestAmendPersistFailureRollsBackStockMoves(t *testing.T) {
	held := OrderItem{ProductID: "p1", Qty: 3, Name: "Monitor", PriceCents: 25000}
	inv := newFakeInventory(
		Product{ID: "p1", Name: "Monitor", Stock: 7, PriceCents: 25000},
		Product{ID: "p2", Name: "Keyboard", Stock: 5, PriceCents: 7500},
	)
	boom := errors.New("update failed")
	os := newFakeOrders(pendingOrder("o1", held))
	os.updateErr = boom
	m := newManager(inv, os)

	_, err := m.Amend(context.Background(), Actor{ID: sellerAna}, "o1", AmendRequest{
		Lines: []LineInput{{ProductID: "p2", Qty: 2}},
	})
	require.ErrorIs(t, err, boom)
	// both the release of p1 and the reserve of p2 undone
	require.Equal(t, 7, inv.stockOf(t, "p1"))
	require.Equal(t, 5, inv.stockOf(t, "p2"))
}
