// Package apitest runs an in-process fake of the expense tracking service
// for tests that exercise the real HTTP client.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/query"
	"github.com/Veraticus/expensy/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Test account defaults.
const (
	DefaultEmail     = "user@example.com"
	DefaultPassword  = "correct-horse"
	DefaultInviteKey = "let-me-in"
	DefaultChunkSize = 10
	BadCardPassword  = "wrong"
)

var signingKey = []byte("apitest")

type account struct {
	user     model.User
	password string
}

type failure struct {
	data    any
	message string
	status  int
}

// Server is a fake backend served over HTTP. All state is guarded by mu and
// can be inspected or replaced between requests.
type Server struct {
	echo       *echo.Echo
	http       *httptest.Server
	accounts   map[string]*account
	sessions   map[string]string
	failures   map[string]failure
	calls      map[string]int
	bodies     map[string][]byte
	history    model.SpendingHistory
	rows       []*model.Transaction
	categories []model.Category
	defaults   []model.Category
	recurring  []model.RecurringTransaction
	requestIDs []string
	URL        string
	mu         sync.Mutex
	chunkSize  int
	nextID     int
}

// NewServer starts a fake backend with one registered account and generated
// data. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	fixtures := testutil.NewFixtures(42)
	categories := fixtures.Categories("Food", "Transport", "Bills")

	s := &Server{
		echo:       echo.New(),
		accounts:   make(map[string]*account),
		sessions:   make(map[string]string),
		failures:   make(map[string]failure),
		calls:      make(map[string]int),
		bodies:     make(map[string][]byte),
		history:    model.SpendingHistory{"202312": 2100.5, "202401": 1830},
		rows:       fixtures.Transactions(35, categories),
		categories: categories,
		defaults:   fixtures.Categories("Groceries", "Restaurants", "Transportation", "Utilities"),
		chunkSize:  DefaultChunkSize,
		nextID:     1,
	}
	s.accounts[DefaultEmail] = &account{
		user: model.User{
			Email:            DefaultEmail,
			FullName:         "Test User",
			Currency:         "₪",
			MonthlyBudget:    5000,
			InitialSetupDone: true,
		},
		password: DefaultPassword,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()

	s.http = httptest.NewServer(s.echo)
	s.URL = s.http.URL
	t.Cleanup(s.http.Close)
	return s
}

func (s *Server) routes() {
	s.echo.Use(s.record)

	users := s.echo.Group("/api/users")
	users.POST("/login", s.login)
	users.POST("/register", s.register)
	users.GET("/get-user-data", s.userData, s.auth)
	users.POST("/setup-user", s.setupUser, s.auth)
	users.POST("/test-cc-credentials", s.testCredentials, s.auth)

	categories := s.echo.Group("/api/categories")
	categories.GET("/get-defaults", s.defaultCategories)
	categories.GET("/get-user-categories", s.userCategories, s.auth)

	tx := s.echo.Group("/api/transactions", s.auth)
	tx.GET("/list-transactions", s.listTransactions)
	tx.PUT("/update-transaction", s.updateTransaction)
	tx.DELETE("/delete-transaction", s.deleteTransaction)
	tx.GET("/list-recurring-transactions", s.listRecurring)
	tx.POST("/create-recurring-transaction", s.createRecurring)
	tx.POST("/update-recurring-transaction", s.updateRecurring)
	tx.DELETE("/delete-recurring-transaction", s.deleteRecurring)
	tx.GET("/get-monthly-spending-history", s.spendingHistory)
}

// Token signs in email directly and returns its access token.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

// Rows returns the full listing the server holds.
func (s *Server) Rows() []*model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// SetRows replaces the listing and its chunk size.
func (s *Server) SetRows(rows []*model.Transaction, chunkSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.chunkSize = chunkSize
}

// Categories returns the signed-in user's categories.
func (s *Server) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

// Recurring returns the recurring transactions.
func (s *Server) Recurring() []model.RecurringTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recurring)
}

// Fail makes the next request to path fail with status, message and data.
func (s *Server) Fail(path string, status int, message string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message, data: data}
}

// Calls counts requests to path, failed ones included.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastBody returns the raw body of the last request to path.
func (s *Server) LastBody(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[path]
}

// RequestIDs returns the request id header of every request, in order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requestIDs)
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, map[string]any{
		"message":     message,
		"status_code": status,
		"data":        data,
	})
}

// record counts the request, keeps its body and serves injected failures.
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		var body []byte
		if c.Request().Body != nil {
			var raw json.RawMessage
			if err := json.NewDecoder(c.Request().Body).Decode(&raw); err == nil {
				body = raw
			}
		}

		s.mu.Lock()
		s.calls[path]++
		s.bodies[path] = body
		s.requestIDs = append(s.requestIDs, c.Request().Header.Get("X-Request-ID"))
		fail, failing := s.failures[path]
		delete(s.failures, path)
		s.mu.Unlock()

		if failing {
			return respond(c, fail.status, fail.message, fail.data)
		}
		c.Set("body", body)
		return next(c)
	}
}

func bind(c echo.Context, v any) error {
	body, _ := c.Get("body").([]byte)
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, v)
}

func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, found := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			return respond(c, http.StatusUnauthorized, "Missing access token", nil)
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return signingKey, nil
		}); err != nil {
			return respond(c, http.StatusUnauthorized, "Token has expired", nil)
		}

		s.mu.Lock()
		email, ok := s.sessions[token]
		s.mu.Unlock()
		if !ok || email != claims.Subject {
			return respond(c, http.StatusUnauthorized, "Unknown session", nil)
		}
		c.Set("email", email)
		return next(c)
	}
}

func (s *Server) issueLocked(email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		ID:        strconv.Itoa(len(s.sessions) + 1),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.sessions[token] = email
	return token
}

func (s *Server) userLocked(c echo.Context) *account {
	email, _ := c.Get("email").(string)
	return s.accounts[email]
}

func (s *Server) login(c echo.Context) error {
	var req model.LoginRequest
	if err := bind(c, &req); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || acct.password != req.Password {
		return respond(c, http.StatusBadRequest, "Incorrect credentials", nil)
	}
	user := acct.user
	user.AccessToken = s.issueLocked(req.Email)
	return respond(c, http.StatusOK, "Succesful login", map[string]any{"user": user})
}

func (s *Server) register(c echo.Context) error {
	var req model.RegisterRequest
	if err := bind(c, &req); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(req.Password) < 8 {
		return respond(c, http.StatusBadRequest, "Form validation failed",
			map[string][]string{"password": {"Field must be at least 8 characters long."}})
	}
	if _, exists := s.accounts[req.Email]; exists {
		return respond(c, http.StatusBadRequest, "Email already registered", nil)
	}
	if req.InviteKey != DefaultInviteKey {
		return respond(c, http.StatusUnauthorized, "Wrong invite key", nil)
	}

	s.accounts[req.Email] = &account{user: model.User{Email: req.Email}, password: req.Password}
	return respond(c, http.StatusOK, "Registration successful",
		map[string]string{"access_token": s.issueLocked(req.Email)})
}

func (s *Server) userData(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return respond(c, http.StatusOK, "User get request completed successful", s.userLocked(c).user)
}

func (s *Server) setupUser(c echo.Context) error {
	var req model.SetupRequest
	if err := bind(c, &req); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.userLocked(c)
	acct.user.FullName = req.FullName
	acct.user.Currency = req.Currency
	acct.user.MonthlyBudget = float64(req.Budget)
	acct.user.InitialSetupDone = true

	s.categories = s.categories[:0]
	for i, sc := range req.Categories {
		cat := sc.Category
		cat.ID = i + 1
		cat.MonthlyBudget = int(sc.Budget)
		s.categories = append(s.categories, cat)
	}
	return respond(c, http.StatusOK, "Setup completed", map[string]any{"user": acct.user})
}

func (s *Server) testCredentials(c echo.Context) error {
	var creds model.Credentials
	if err := bind(c, &creds); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}
	if creds.Password == BadCardPassword {
		return respond(c, http.StatusBadRequest, "Incorrect credentials", nil)
	}
	return respond(c, http.StatusOK, "Credentials are valid", nil)
}

func (s *Server) defaultCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return respond(c, http.StatusOK, "Default categories", s.defaults)
}

func (s *Server) userCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return respond(c, http.StatusOK, "User categories", s.categories)
}

// listTransactions filters by store and category, then lays the requested
// window out in chunks.
func (s *Server) listTransactions(c echo.Context) error {
	index, err := strconv.Atoi(c.QueryParam("index"))
	if err != nil || index < 0 {
		return respond(c, http.StatusBadRequest, "index must be a non-negative integer", nil)
	}
	length, err := strconv.Atoi(c.QueryParam("length"))
	if err != nil || length <= 0 {
		return respond(c, http.StatusBadRequest, "length must be a positive integer", nil)
	}
	view := query.Decode(c.QueryParams())

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*model.Transaction, 0, len(s.rows))
	for _, row := range s.rows {
		if view.Filters.Store != "" &&
			!strings.Contains(strings.ToLower(row.Merchant()), strings.ToLower(view.Filters.Store)) {
			continue
		}
		if len(view.Filters.Category) > 0 &&
			(row.CategoryID == nil || !slices.Contains(view.Filters.Category, *row.CategoryID)) {
			continue
		}
		rows = append(rows, row)
	}

	return respond(c, http.StatusOK, "Transactions", model.TransactionsPayload{
		Transactions:           testutil.Chunk(rows, s.chunkSize, index, length),
		ChunkSize:              s.chunkSize,
		TotalTransactionsCount: len(rows),
	})
}

func (s *Server) updateTransaction(c echo.Context) error {
	var update model.TransactionUpdate
	if err := bind(c, &update); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.rows, func(t *model.Transaction) bool { return t.ID == update.TransactionID })
	if i < 0 {
		return respond(c, http.StatusNotFound, "Transaction not found", nil)
	}

	edited := *s.rows[i]
	categoryID := update.CategoryID
	edited.CategoryID = &categoryID
	edited.CategoryName = nil
	for _, cat := range s.categories {
		if cat.ID == categoryID {
			name := cat.CategoryName
			edited.CategoryName = &name
		}
	}
	edited.TransactionAmount = decimal.NewFromFloat(update.TransactionAmount)
	if update.MerchantData.Name != "" {
		edited.MerchantData.Name = update.MerchantData.Name
	}
	if update.MerchantData.Address != "" {
		edited.MerchantData.Address = update.MerchantData.Address
	}
	if d, err := model.ParseDate(update.PurchaseDate); err == nil {
		edited.PurchaseDate = d
	}
	if d, err := model.ParseDate(update.PaymentDate); err == nil {
		edited.PaymentDate = d
	}
	s.rows[i] = &edited
	return respond(c, http.StatusOK, "Transaction updated", nil)
}

func (s *Server) deleteTransaction(c echo.Context) error {
	var req struct {
		TransactionID string `json:"transactionId"`
	}
	if err := bind(c, &req); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.rows, func(t *model.Transaction) bool { return t.ID == req.TransactionID })
	if i < 0 {
		return respond(c, http.StatusNotFound, "Transaction not found", nil)
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return respond(c, http.StatusOK, "Transaction deleted", nil)
}

func (s *Server) listRecurring(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.recurring
	if out == nil {
		out = []model.RecurringTransaction{}
	}
	return respond(c, http.StatusOK, "Recurring transactions", out)
}

func (s *Server) recurringFromInputLocked(in model.RecurringInput, id int) (model.RecurringTransaction, error) {
	start, err := model.ParseDate(in.StartDate)
	if err != nil {
		return model.RecurringTransaction{}, err
	}
	categoryID := in.CategoryID
	txID := fmt.Sprintf("recurring-%d", id)
	return model.RecurringTransaction{
		ID:              id,
		TransactionID:   txID,
		TransactionName: in.Name,
		FrequencyUnit:   in.FrequencyUnit,
		FrequencyValue:  in.FrequencyValue,
		StartDate:       start,
		Transaction: &model.Transaction{
			ID:                txID,
			CategoryID:        &categoryID,
			MerchantData:      model.MerchantData{Name: in.Name},
			TransactionAmount: decimal.NewFromFloat(in.Amount),
			IsRecurring:       true,
		},
	}, nil
}

func (s *Server) createRecurring(c echo.Context) error {
	var in model.RecurringInput
	if err := bind(c, &in); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.recurringFromInputLocked(in, s.nextID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed",
			map[string][]string{"startDate": {"Not a valid date value."}})
	}
	s.nextID++
	s.recurring = append(s.recurring, r)
	return respond(c, http.StatusOK, "Recurring transaction created", nil)
}

func (s *Server) updateRecurring(c echo.Context) error {
	var in model.RecurringInput
	if err := bind(c, &in); err != nil || in.ID == nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.recurring, func(r model.RecurringTransaction) bool { return r.ID == *in.ID })
	if i < 0 {
		return respond(c, http.StatusNotFound, "Recurring transaction not found", nil)
	}
	r, err := s.recurringFromInputLocked(in, *in.ID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}
	s.recurring[i] = r
	return respond(c, http.StatusOK, "Recurring transaction updated", nil)
}

func (s *Server) deleteRecurring(c echo.Context) error {
	var req struct {
		ID int `json:"id"`
	}
	if err := bind(c, &req); err != nil {
		return respond(c, http.StatusBadRequest, "Form validation failed", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.recurring, func(r model.RecurringTransaction) bool { return r.ID == req.ID })
	if i < 0 {
		return respond(c, http.StatusNotFound, "Recurring transaction not found", nil)
	}
	s.recurring = slices.Delete(s.recurring, i, i+1)
	return respond(c, http.StatusOK, "Recurring transaction deleted", nil)
}

func (s *Server) spendingHistory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return respond(c, http.StatusOK, "Spending history", s.history)
}
