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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-dev/mercato-backend/api/middleware"
	"github.com/mercato-dev/mercato-backend/internal/auth"
	"github.com/mercato-dev/mercato-backend/internal/checkout"
	product "github.com/mercato-dev/mercato-backend/internal/products"
	"github.com/mercato-dev/mercato-backend/internal/reviews"
	"github.com/mercato-dev/mercato-backend/internal/users"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newRequest(method, target, body string, userID uint64, role enums.UserRole, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if userID != 0 {
		ctx = middleware.WithActor(ctx, userID, role)
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

type stubProductService struct {
	created    product.CreateInput
	updated    product.UpdateInput
	deletedID  uint64
	filters    product.SearchFilters
	params     pagination.Params
	err        error
	callerID   uint64
	detailSeen uint64
}

func (s *stubProductService) Create(ctx context.Context, sellerID uint64, input product.CreateInput) (*product.ProductDTO, error) {
	s.callerID = sellerID
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &product.ProductDTO{ID: 1, SellerID: sellerID, Name: input.Name, Price: input.Price.StringFixed(2)}, nil
}

func (s *stubProductService) Update(ctx context.Context, sellerID, productID uint64, input product.UpdateInput) (*product.ProductDTO, error) {
	s.callerID = sellerID
	s.updated = input
	if s.err != nil {
		return nil, s.err
	}
	return &product.ProductDTO{ID: productID, SellerID: sellerID}, nil
}

func (s *stubProductService) Delete(ctx context.Context, sellerID, productID uint64) error {
	s.callerID = sellerID
	s.deletedID = productID
	return s.err
}

func (s *stubProductService) Get(ctx context.Context, productID uint64) (*product.ProductDetailDTO, error) {
	s.detailSeen = productID
	if s.err != nil {
		return nil, s.err
	}
	return &product.ProductDetailDTO{ProductDTO: product.ProductDTO{ID: productID}}, nil
}

func (s *stubProductService) Search(ctx context.Context, filters product.SearchFilters, params pagination.Params) (*product.SearchResult, error) {
	s.filters = filters
	s.params = params
	return &product.SearchResult{Products: []product.ProductDTO{}}, s.err
}

func TestSellerCreateProduct(t *testing.T) {
	logg := testLogger()

	t.Run("missing user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/seller/products", `{"name":"Tea","price":"4.50","quantity":3}`, 0, "", nil)
		SellerCreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/seller/products", `{"name":"Tea","price":"4.50","quantity":0}`, 5, enums.UserRoleSeller, nil)
		SellerCreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubProductService{}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/seller/products", `{"name":"Tea","price":"4.50","quantity":3,"brand":"Acme"}`, 5, enums.UserRoleSeller, nil)
		SellerCreateProduct(stub, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, uint64(5), stub.callerID)
		assert.Equal(t, "4.5", stub.created.Price.String())
		require.NotNil(t, stub.created.Brand)
		assert.Equal(t, "Acme", *stub.created.Brand)
		assert.Contains(t, rec.Body.String(), `"price":"4.50"`)
	})

	t.Run("service error", func(t *testing.T) {
		stub := &stubProductService{err: pkgerrors.New(pkgerrors.CodeValidation, "price out of range")}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/seller/products", `{"name":"Tea","price":0,"quantity":3}`, 5, enums.UserRoleSeller, nil)
		SellerCreateProduct(stub, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec))
	})
}

func TestSellerUpdateAndDeleteProduct(t *testing.T) {
	logg := testLogger()

	t.Run("invalid product id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPatch, "/api/v1/seller/products/abc", `{"name":"x"}`, 5, enums.UserRoleSeller, map[string]string{"productId": "abc"})
		SellerUpdateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		stub := &stubProductService{}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPatch, "/api/v1/seller/products/9", `{"quantity":0,"category":""}`, 5, enums.UserRoleSeller, map[string]string{"productId": "9"})
		SellerUpdateProduct(stub, logg).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, stub.updated.Quantity)
		assert.Equal(t, 0, *stub.updated.Quantity)
		require.NotNil(t, stub.updated.Category)
		assert.Equal(t, "", *stub.updated.Category)
		assert.Nil(t, stub.updated.Name)
	})

	t.Run("delete forbidden", func(t *testing.T) {
		stub := &stubProductService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your product")}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodDelete, "/api/v1/seller/products/9", "", 5, enums.UserRoleSeller, map[string]string{"productId": "9"})
		SellerDeleteProduct(stub, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete success", func(t *testing.T) {
		stub := &stubProductService{}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodDelete, "/api/v1/seller/products/9", "", 5, enums.UserRoleSeller, map[string]string{"productId": "9"})
		SellerDeleteProduct(stub, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, uint64(9), stub.deletedID)
	})
}

func TestProductSearchParsesFilters(t *testing.T) {
	stub := &stubProductService{}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/products?q=%20green%20&min_price=1.5&max_price=10&brand=Acme&seller_id=3&limit=5&cursor=abc", "", 0, "", nil)
	ProductSearch(stub, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "green", stub.filters.Query)
	assert.Equal(t, "Acme", stub.filters.Brand)
	assert.Equal(t, uint64(3), stub.filters.SellerID)
	require.NotNil(t, stub.filters.MinPrice)
	assert.Equal(t, "1.5", stub.filters.MinPrice.String())
	require.NotNil(t, stub.filters.MaxPrice)
	assert.Equal(t, 5, stub.params.Limit)
	assert.Equal(t, "abc", stub.params.Cursor)
}

func TestProductSearchRejectsBadPrice(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/products?min_price=cheap", "", 0, "", nil)
	ProductSearch(&stubProductService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDetailNotFound(t *testing.T) {
	stub := &stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodGet, "/api/v1/products/77", "", 0, "", map[string]string{"productId": "77"})
	ProductDetail(stub, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uint64(77), stub.detailSeen)
}

type stubReviewService struct {
	input reviews.Input
	err   error
}

func (s *stubReviewService) Create(ctx context.Context, userID, productID uint64, input reviews.Input) (*reviews.ReviewDTO, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &reviews.ReviewDTO{ID: 1, UserID: userID, ProductID: productID, Rating: input.Rating}, nil
}

func (s *stubReviewService) Update(ctx context.Context, userID, reviewID uint64, input reviews.Input) (*reviews.ReviewDTO, error) {
	s.input = input
	return &reviews.ReviewDTO{ID: reviewID}, s.err
}

func (s *stubReviewService) Delete(ctx context.Context, userID, reviewID uint64) error {
	return s.err
}

func (s *stubReviewService) ListByProduct(ctx context.Context, productID uint64) (*reviews.ListResult, error) {
	return &reviews.ListResult{Reviews: []reviews.ReviewDTO{}}, s.err
}

func TestReviewCreate(t *testing.T) {
	logg := testLogger()

	t.Run("zero rating accepted", func(t *testing.T) {
		stub := &stubReviewService{}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/products/3/reviews", `{"rating":0,"comment":"meh"}`, 8, enums.UserRoleBuyer, map[string]string{"productId": "3"})
		ReviewCreate(stub, logg).ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 0.0, stub.input.Rating)
	})

	t.Run("missing rating", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/products/3/reviews", `{"comment":"meh"}`, 8, enums.UserRoleBuyer, map[string]string{"productId": "3"})
		ReviewCreate(&stubReviewService{}, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rating above five", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/products/3/reviews", `{"rating":5.5,"comment":"wow"}`, 8, enums.UserRoleBuyer, map[string]string{"productId": "3"})
		ReviewCreate(&stubReviewService{}, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		stub := &stubReviewService{err: pkgerrors.New(pkgerrors.CodeConflict, "already reviewed")}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/products/3/reviews", `{"rating":4,"comment":"good"}`, 8, enums.UserRoleBuyer, map[string]string{"productId": "3"})
		ReviewCreate(stub, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestReviewDelete(t *testing.T) {
	rec := httptest.NewRecorder()
	req := newRequest(http.MethodDelete, "/api/v1/reviews/4", "", 8, enums.UserRoleBuyer, map[string]string{"reviewId": "4"})
	ReviewDelete(&stubReviewService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubRegisterService struct {
	req auth.RegisterRequest
	err error
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: 1, Email: req.Email, Role: req.Role}, nil
}

type stubLoginService struct {
	err error
}

func (s stubLoginService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

func TestAuthRegister(t *testing.T) {
	logg := testLogger()

	t.Run("created", func(t *testing.T) {
		stub := &stubRegisterService{}
		rec := httptest.NewRecorder()
		body := `{"email":"a@example.com","password":"password1","role":"seller","name":"Ann","username":"ann"}`
		AuthRegister(stub, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/public/register", body, 0, "", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, enums.UserRoleSeller, stub.req.Role)
	})

	t.Run("short password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"email":"a@example.com","password":"short","role":"seller","name":"Ann","username":"ann"}`
		AuthRegister(&stubRegisterService{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/public/register", body, 0, "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		stub := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
		rec := httptest.NewRecorder()
		body := `{"email":"a@example.com","password":"password1","role":"buyer","name":"Ann","username":"ann","city":"Roma","address":"Via 1"}`
		AuthRegister(stub, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/public/register", body, 0, "", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAuthLogin(t *testing.T) {
	logg := testLogger()

	rec := httptest.NewRecorder()
	AuthLogin(stubLoginService{}, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/public/login", `{"email":"a@example.com","password":"pw"}`, 0, "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"token"`)

	rec = httptest.NewRecorder()
	failing := stubLoginService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	AuthLogin(failing, logg).ServeHTTP(rec, newRequest(http.MethodPost, "/api/public/login", `{"email":"a@example.com","password":"pw"}`, 0, "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubCheckoutService struct {
	input checkout.Input
	err   error
}

func (s *stubCheckoutService) Execute(ctx context.Context, buyerID uint64, input checkout.Input) (*checkout.Result, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.Result{GrandTotal: "25.00"}, nil
}

func TestCheckout(t *testing.T) {
	logg := testLogger()

	t.Run("created", func(t *testing.T) {
		stub := &stubCheckoutService{}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/checkout", `{"address":"Via Roma 1","city":"Milano"}`, 3, enums.UserRoleBuyer, nil)
		Checkout(stub, logg).ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Milano", stub.input.City)
		assert.Contains(t, rec.Body.String(), `"25.00"`)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		stub := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{"shortages": []int{1}})}
		rec := httptest.NewRecorder()
		req := newRequest(http.MethodPost, "/api/v1/checkout", `{"address":"Via Roma 1","city":"Milano"}`, 3, enums.UserRoleBuyer, nil)
		Checkout(stub, logg).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "shortages")
	})
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": nil}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Mercato-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{err: errors.New("down")}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
