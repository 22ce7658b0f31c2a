package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/core/service"
)

// In-memory fakes for the repository ports. The services under the
// routes are the real ones.

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: make(map[string]*domain.Product)}
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, p *domain.Product) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return false, nil
	}
	cp := *p
	f.products[p.ID] = &cp
	return true, nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return false, nil
	}
	delete(f.products, id)
	return true, nil
}

func (f *fakeCatalog) ReserveStock(ctx context.Context, id string, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

func (f *fakeCatalog) ReleaseStock(ctx context.Context, id string, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return false, nil
	}
	p.Stock += quantity
	return true, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrders) CreateOrder(ctx context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &cp, nil
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeOrders) ListAll(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func (f *fakeOrders) UpdateOrder(ctx context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) DeleteOrder(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return false, nil
	}
	delete(f.orders, id)
	return true, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*domain.User)}
}

func (f *fakeUsers) CreateUser(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return false, nil
	}
	delete(f.users, id)
	return true, nil
}

func (f *fakeUsers) promote(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Role = domain.RoleAdmin
	}
}

type fakeClassifier struct{}

func (fakeClassifier) Classify(ctx context.Context, image io.Reader, filename string) (*domain.Diagnosis, error) {
	io.Copy(io.Discard, image)
	return &domain.Diagnosis{
		IsPlant:          true,
		PlantProbability: 0.95,
		IsHealthy:        true,
	}, nil
}

type testEnv struct {
	server  *httptest.Server
	catalog *fakeCatalog
	orders  *fakeOrders
	users   *fakeUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := newFakeCatalog()
	orders := newFakeOrders()
	users := newFakeUsers()

	authz := service.RoleAuthorizer{}
	orderSvc := service.NewOrderService(catalog, orders, nil, nil, authz, nil, nil)
	catalogSvc := service.NewCatalogService(catalog, nil, authz, nil)
	authSvc := service.NewAuthService(users, authz, "handler-test-secret")
	detectSvc := service.NewDetectionService(fakeClassifier{}, nil)

	h := New(nil, nil, orderSvc, catalogSvc, authSvc, detectSvc)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, catalog: catalog, orders: orders, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

// register creates an account and returns its user id and token.
func (e *testEnv) register(t *testing.T, name, email string) (string, string) {
	t.Helper()

	resp, raw := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d: %s", resp.StatusCode, raw)
	}
	var out struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.User.ID, out.Token
}

// adminToken registers an account, promotes it and logs in again so the
// fresh token carries the admin role.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	id, _ := e.register(t, "Admin", "admin@example.com")
	e.users.promote(id)

	resp, raw := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "longenough",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login returned %d: %s", resp.StatusCode, raw)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return out.Token
}

func (e *testEnv) seedProduct(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	err := e.catalog.CreateProduct(context.Background(), &domain.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode error body %q: %v", raw, err)
	}
	return out.Error.Code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d: %s", resp.StatusCode, raw)
	}
}

func TestPlaceOrder_HTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	_, token := env.register(t, "Asha", "asha@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"products":      []map[string]any{{"product": "p1", "quantity": 3}},
		"paymentMethod": "cash-on-delivery",
		"shippingAddress": map[string]string{
			"city": "Nashik",
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place order returned %d: %s", resp.StatusCode, raw)
	}

	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if !order.TotalPrice.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected total 300, got %s", order.TotalPrice)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}

	p, _ := env.catalog.GetProduct(context.Background(), "p1")
	if p.Stock != 2 {
		t.Errorf("expected stock 2 after order, got %d", p.Stock)
	}
}

func TestPlaceOrder_InsufficientStock_HTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 2)
	_, token := env.register(t, "Asha", "asha@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"products":      []map[string]any{{"product": "p1", "quantity": 10}},
		"paymentMethod": "card",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "InsufficientStock" {
		t.Errorf("expected code InsufficientStock, got %q", code)
	}
}

func TestPlaceOrder_EmptyCart_HTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Asha", "asha@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"products":      []map[string]any{},
		"paymentMethod": "card",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "ValidationError" {
		t.Errorf("expected code ValidationError, got %q", code)
	}
}

func TestOrders_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/api/orders", "", map[string]any{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/orders/myorders", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestCancelOrder_HTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	_, token := env.register(t, "Asha", "asha@example.com")

	_, raw := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"products":      []map[string]any{{"product": "p1", "quantity": 2}},
		"paymentMethod": "card",
	})
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	resp, raw := env.do(t, http.MethodPut, "/api/orders/"+order.ID, token, map[string]string{
		"status": "cancelled",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel returned %d: %s", resp.StatusCode, raw)
	}

	p, _ := env.catalog.GetProduct(context.Background(), "p1")
	if p.Stock != 5 {
		t.Errorf("expected stock restored to 5, got %d", p.Stock)
	}
}

func TestGetOrder_ForbiddenForStranger(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 100, 5)
	_, ownerToken := env.register(t, "Asha", "asha@example.com")
	_, strangerToken := env.register(t, "Ravi", "ravi@example.com")

	_, raw := env.do(t, http.MethodPost, "/api/orders", ownerToken, map[string]any{
		"products":      []map[string]any{{"product": "p1", "quantity": 1}},
		"paymentMethod": "card",
	})
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	resp, raw := env.do(t, http.MethodGet, "/api/orders/"+order.ID, strangerToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "Forbidden" {
		t.Errorf("expected code Forbidden, got %q", code)
	}
}

func TestAdminRoutes_ForbiddenForRegularUser(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "Asha", "asha@example.com")

	for _, probe := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/admin/products", map[string]any{"name": "x", "price": "10", "stock": 1}},
		{http.MethodGet, "/api/admin/users", nil},
		{http.MethodGet, "/api/admin/orders", nil},
	} {
		resp, raw := env.do(t, probe.method, probe.path, token, probe.body)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d: %s", probe.method, probe.path, resp.StatusCode, raw)
		}
	}
}

func TestProductCRUD_HTTP(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	resp, raw := env.do(t, http.MethodPost, "/api/admin/products", admin, map[string]any{
		"name":     "Organic Pesticide",
		"price":    "299",
		"stock":    50,
		"category": "Pesticides",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d: %s", resp.StatusCode, raw)
	}
	var created domain.Product
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created product has no id")
	}

	// Public catalog read needs no token.
	resp, raw = env.do(t, http.MethodGet, "/api/products/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get returned %d: %s", resp.StatusCode, raw)
	}

	resp, raw = env.do(t, http.MethodDelete, "/api/admin/products/"+created.ID, admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete returned %d: %s", resp.StatusCode, raw)
	}

	resp, raw = env.do(t, http.MethodGet, "/api/products/"+created.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", resp.StatusCode, raw)
	}
}

func TestRegister_DuplicateEmail_HTTP(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Asha", "asha@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Another",
		"email":    "asha@example.com",
		"password": "longenough",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "EmailTaken" {
		t.Errorf("expected code EmailTaken, got %q", code)
	}
}

func TestMe_HTTP(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.register(t, "Asha", "asha@example.com")

	resp, raw := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me returned %d: %s", resp.StatusCode, raw)
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.ID != id || u.Email != "asha@example.com" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestDetect_HTTP(t *testing.T) {
	env := newTestEnv(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "leaf.jpg")
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	fmt.Fprint(fw, "fake-image-bytes")
	w.Close()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/detect", body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detect returned %d: %s", resp.StatusCode, raw)
	}
	var d domain.Diagnosis
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("decode diagnosis: %v", err)
	}
	if !d.IsPlant {
		t.Errorf("unexpected diagnosis: %+v", d)
	}
}

func TestDetect_RejectsBadExtension(t *testing.T) {
	env := newTestEnv(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, _ := w.CreateFormFile("image", "notes.txt")
	fmt.Fprint(fw, "not an image")
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/detect", body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for .txt upload, got %d", resp.StatusCode)
	}
}
