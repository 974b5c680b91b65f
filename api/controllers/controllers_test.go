package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/shopeasy-backend/api/middleware"
	"github.com/angelmondragon/shopeasy-backend/internal/auth"
	"github.com/angelmondragon/shopeasy-backend/internal/cart"
	"github.com/angelmondragon/shopeasy-backend/internal/orders"
	"github.com/angelmondragon/shopeasy-backend/internal/products"
	"github.com/angelmondragon/shopeasy-backend/internal/users"
	"github.com/angelmondragon/shopeasy-backend/pkg/config"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  json.RawMessage `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func withParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-ShopEasy-Env") != "test" {
		t.Fatalf("expected env header")
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"redis": stubPinger{err: errors.New("down")}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRequestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://shop.example.com/api/v1/products", nil)
	if got := requestBaseURL(req); got != "http://shop.example.com" {
		t.Fatalf("unexpected base url %q", got)
	}
	req.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	if got := requestBaseURL(req); got != "https://shop.example.com" {
		t.Fatalf("expected forwarded scheme, got %q", got)
	}
}

type stubAuthService struct {
	registerErr error
	lastRefresh string
	lastLogout  string
	lastChange  auth.ChangePasswordRequest
	lastKeep    string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	if err := auth.CheckConfirmation(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &users.UserDTO{ID: 1, Username: req.Username}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if req.Password != "ok" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken string, req auth.RefreshRequest) (*auth.LoginResponse, error) {
	s.lastRefresh = accessToken
	return &auth.LoginResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.lastLogout = accessToken
	return nil
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID int64, accessID string, req auth.ChangePasswordRequest) error {
	s.lastChange = req
	s.lastKeep = accessID
	return auth.CheckConfirmation(req.NewPassword, req.ConfirmPassword)
}

func TestAuthRegister(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, testLogger())

	rec := httptest.NewRecorder()
	body := `{"username":"maria","email":"m@example.com","password":"a1","confirm_password":"b2"}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Error == nil || env.Error.Details["confirm_password"] == "" {
		t.Fatalf("expected confirm_password detail, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	body = `{"username":"maria","password":"a1","confirm_password":"a1"}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"maria","password":"ok"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(tokenHeader) != "access" {
		t.Fatalf("expected token header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"maria","password":"bad"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRefreshAndLogoutUseBearerToken(t *testing.T) {
	svc := &stubAuthService{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`))
	AuthRefresh(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`))
	req.Header.Set("Authorization", "Bearer old-token")
	AuthRefresh(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.lastRefresh != "old-token" {
		t.Fatalf("expected refresh with old-token, got %d %q", rec.Code, svc.lastRefresh)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer current")
	AuthLogout(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.lastLogout != "current" {
		t.Fatalf("expected logout of current, got %d %q", rec.Code, svc.lastLogout)
	}
}

type stubProfileService struct {
	last users.UpdateProfileInput
}

func (s *stubProfileService) Get(ctx context.Context, userID int64) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID, Username: "maria", Email: "m@example.com"}, nil
}

func (s *stubProfileService) Update(ctx context.Context, userID int64, input users.UpdateProfileInput) (*users.UserDTO, error) {
	s.last = input
	return &users.UserDTO{ID: userID, Username: *input.Username, Email: "m@example.com"}, nil
}

func TestMeEndpoints(t *testing.T) {
	svc := &stubProfileService{}

	rec := httptest.NewRecorder()
	MeGet(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"username":"maria2","email":"hacker@example.com","is_staff":true}`
	MeUpdate(svc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/me", strings.NewReader(body)), 3))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile users.UserDTO
	if err := json.Unmarshal(decode(t, rec).Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "m@example.com" || profile.IsStaff {
		t.Fatalf("read-only fields must not change: %+v", profile)
	}

	authSvc := &stubAuthService{}
	rec = httptest.NewRecorder()
	body = `{"current_password":"a","new_password":"b","confirm_password":"c"}`
	MeChangePassword(authSvc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/me/password", strings.NewReader(body)), 3))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on mismatch, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body = `{"current_password":"a","new_password":"b","confirm_password":"b"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/me/password", strings.NewReader(body)), 3)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-current"))
	MeChangePassword(authSvc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if authSvc.lastKeep != "jti-current" {
		t.Fatalf("expected current session to be kept, got %q", authSvc.lastKeep)
	}
}

type stubProductService struct {
	products.Service
	product     *models.Product
	lastFilters products.ListFilters
	lastParams  pagination.Params
}

func (s *stubProductService) List(ctx context.Context, filters products.ListFilters, params pagination.Params) ([]models.Product, pagination.Page, error) {
	s.lastFilters = filters
	s.lastParams = params
	return []models.Product{*s.product}, pagination.Page{Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *stubProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	if id != s.product.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.product, nil
}

func (s *stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	if input.Image == nil && input.ImageURL == nil {
		return nil, pkgerrors.Field("image", models.MissingImageMessage)
	}
	return s.product, nil
}

func newStubProduct() *models.Product {
	image := "produtos/camiseta.jpg"
	p := &models.Product{Name: "camiseta azul", Price: decimal.RequireFromString("49.90"), Stock: 2, Image: &image}
	p.ID = 7
	p.Images = []models.ProductImage{{ProductID: 7, Image: "galeria/1.jpg"}}
	return p
}

func TestProductGetResolvesMediaURLs(t *testing.T) {
	svc := &stubProductService{product: newStubProduct()}
	handler := ProductGet(svc, products.NewPresenter("/media/"), testLogger())

	req := httptest.NewRequest(http.MethodGet, "http://shop.example.com/api/v1/products/7", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withParam(req, "productId", "7"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dto products.ProductDTO
	if err := json.Unmarshal(decode(t, rec).Data, &dto); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if dto.FinalImageURL == nil || *dto.FinalImageURL != "http://shop.example.com/media/produtos/camiseta.jpg" {
		t.Fatalf("unexpected final_image_url %v", dto.FinalImageURL)
	}
	if dto.DisplayName != "Camiseta Azul" {
		t.Fatalf("unexpected display name %q", dto.DisplayName)
	}
	if len(dto.Images) != 1 || dto.Images[0].Image != "http://shop.example.com/media/galeria/1.jpg" {
		t.Fatalf("unexpected gallery %+v", dto.Images)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil), "productId", "abc"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProductService{product: newStubProduct()}
	handler := ProductList(svc, products.NewPresenter("/media/"), testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?category_id=3&on_promotion=true&q=%20azul%20&limit=10&offset=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastFilters.CategoryID == nil || *svc.lastFilters.CategoryID != 3 {
		t.Fatalf("category filter not parsed: %+v", svc.lastFilters)
	}
	if svc.lastFilters.OnPromotion == nil || !*svc.lastFilters.OnPromotion || svc.lastFilters.Featured != nil {
		t.Fatalf("flag filters not parsed: %+v", svc.lastFilters)
	}
	if svc.lastFilters.Query != "azul" || svc.lastParams.Limit != 10 || svc.lastParams.Offset != 5 {
		t.Fatalf("unexpected query/page %+v %+v", svc.lastFilters, svc.lastParams)
	}
	if len(decode(t, rec).Meta) == 0 {
		t.Fatalf("expected pagination meta")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?featured=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad bool, got %d", rec.Code)
	}
}

func TestProductCreateRequiresImage(t *testing.T) {
	svc := &stubProductService{product: newStubProduct()}
	rec := httptest.NewRecorder()
	body := `{"name":"Camiseta","price":"49.90","stock":1}`
	ProductCreate(svc, products.NewPresenter("/media/"), testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decode(t, rec).Error.Details["image"] != models.MissingImageMessage {
		t.Fatalf("expected image detail, got %s", rec.Body.String())
	}
}

type stubCartService struct {
	cart.Service
	lastItems []cart.ItemInput
}

func (s *stubCartService) view(userID int64) *cart.View {
	c := &models.Cart{UserID: userID, TotalPrice: decimal.RequireFromString("20.00")}
	c.ID = 11
	item := models.CartItem{CartID: 11, ProductID: 7, Quantity: 2, Product: models.Product{Name: "camiseta", Price: decimal.RequireFromString("10.00")}}
	return &cart.View{Cart: c, Items: []models.CartItem{item}}
}

func (s *stubCartService) CreateCart(ctx context.Context, userID int64, items []cart.ItemInput) (*cart.View, error) {
	s.lastItems = items
	return s.view(userID), nil
}

func (s *stubCartService) Get(ctx context.Context, userID int64) (*cart.View, error) {
	return s.view(userID), nil
}

func TestCartCreate(t *testing.T) {
	svc := &stubCartService{}

	rec := httptest.NewRecorder()
	CartGet(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"items":[{"product_id":7,"quantity":2,"cart_id":99}]}`
	CartCreate(svc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), 4))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.lastItems) != 1 || svc.lastItems[0].ProductID != 7 {
		t.Fatalf("unexpected items %+v", svc.lastItems)
	}
	var dto cart.CartDTO
	if err := json.Unmarshal(decode(t, rec).Data, &dto); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if dto.UserID != 4 || len(dto.Items) != 1 || dto.Items[0].ProductName != "Camiseta" {
		t.Fatalf("unexpected cart %+v", dto)
	}

	rec = httptest.NewRecorder()
	body = `{"items":[{"product_id":7,"quantity":-1}]}`
	CartCreate(svc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), 4))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative quantity, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body = `{"items":[{"product_id":7,"quantity":2147483648}]}`
	CartCreate(svc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart", strings.NewReader(body)), 4))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized quantity, got %d", rec.Code)
	}
}

type stubCheckoutService struct {
	err error
}

func (s stubCheckoutService) CreateOrder(ctx context.Context, userID int64) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	order := &models.Order{UserID: userID, TotalPrice: decimal.RequireFromString("25.50"), Status: enums.OrderStatusPending}
	order.ID = 1
	return order, nil
}

func TestOrderCreate(t *testing.T) {
	rec := httptest.NewRecorder()
	OrderCreate(stubCheckoutService{}, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil), 2))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var dto orders.OrderDTO
	if err := json.Unmarshal(decode(t, rec).Data, &dto); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if !dto.TotalPrice.Equal(decimal.RequireFromString("25.50")) || dto.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected order %+v", dto)
	}

	stockErr := pkgerrors.Field("stock", "insufficient stock for product: Camiseta")
	rec = httptest.NewRecorder()
	OrderCreate(stubCheckoutService{err: stockErr}, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil), 2))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decode(t, rec).Error.Details["stock"]; got != "insufficient stock for product: Camiseta" {
		t.Fatalf("unexpected stock detail %q", got)
	}
}

type stubOrdersService struct {
	lastStatus string
}

func (s *stubOrdersService) List(ctx context.Context, userID int64, params pagination.Params) ([]orders.OrderDTO, pagination.Page, error) {
	return []orders.OrderDTO{{ID: 2, UserID: userID}, {ID: 1, UserID: userID}}, pagination.Page{Limit: 25}, nil
}

func (s *stubOrdersService) Get(ctx context.Context, userID, orderID int64) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID int64, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	s.lastStatus = input.Status
	return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatus(input.Status)}, nil
}

func TestOrderEndpoints(t *testing.T) {
	svc := &stubOrdersService{}

	rec := httptest.NewRecorder()
	OrderList(svc, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), 2))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := withParam(withUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/9", nil), 2), "orderId", "9")
	OrderGet(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = withParam(httptest.NewRequest(http.MethodPatch, "/api/v1/orders/9/status", strings.NewReader(`{"status":"cancelled"}`)), "orderId", "9")
	OrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = withParam(httptest.NewRequest(http.MethodPatch, "/api/v1/orders/9/status", strings.NewReader(`{"status":"shipped"}`)), "orderId", "9")
	OrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.lastStatus != "shipped" {
		t.Fatalf("expected shipped, got %d %q", rec.Code, svc.lastStatus)
	}
}
