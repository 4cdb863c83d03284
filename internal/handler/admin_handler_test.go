package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
)

type mockAdminCommander struct {
	deleteFn     func(cqrs.DeleteAccountCommand) (int, error)
	deleteUserFn func(cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error)
}

func (m *mockAdminCommander) DeleteAccount(_ context.Context, cmd cqrs.DeleteAccountCommand) (int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return 0, fmt.Errorf("not configured")
}
func (m *mockAdminCommander) DeleteUserAccounts(_ context.Context, cmd cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error) {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockAdminQuerier struct {
	listAllFn  func() ([]models.AccountView, error)
	getFn      func(cqrs.AdminGetAccountQuery) (*models.AccountView, error)
	listUserFn func(cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error)
}

func (m *mockAdminQuerier) ListAllAccounts(context.Context, cqrs.ListAllAccountsQuery) ([]models.AccountView, error) {
	if m.listAllFn != nil {
		return m.listAllFn()
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminQuerier) AdminGetAccount(_ context.Context, q cqrs.AdminGetAccountQuery) (*models.AccountView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAdminQuerier) AdminListUserAccounts(_ context.Context, q cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error) {
	if m.listUserFn != nil {
		return m.listUserFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newAdminTestRouter(cmds AdminCommander, qrys AdminQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth("adm-001", "Root"))
	h := NewAdminHandler(cmds, qrys)
	admin := r.Group("/v1/admin")
	admin.GET("/accounts", h.ListAllAccounts)
	admin.GET("/accounts/:accountNumber", h.GetAccount)
	admin.GET("/users/:userId/accounts", h.ListUserAccounts)
	admin.DELETE("/accounts/:accountNumber", h.DeleteAccount)
	admin.DELETE("/users/:userId/accounts", h.DeleteUserAccounts)
	return r
}

func TestAdminListAllAccountsExposesOwner(t *testing.T) {
	qrys := &mockAdminQuerier{listAllFn: func() ([]models.AccountView, error) {
		return []models.AccountView{*aTestAccountView}, nil
	}}
	w := doRequest(newAdminTestRouter(&mockAdminCommander{}, qrys), http.MethodGet, "/v1/admin/accounts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Accounts []map[string]any `json:"accounts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Accounts) != 1 || body.Accounts[0]["userId"] != "usr-001" {
		t.Errorf("expected the owner id in the admin listing, got %v", body.Accounts)
	}
}

func TestAdminGetAccount(t *testing.T) {
	tests := []struct {
		name           string
		getFn          func(cqrs.AdminGetAccountQuery) (*models.AccountView, error)
		expectedStatus int
	}{
		{
			name: "success - any holder's account",
			getFn: func(q cqrs.AdminGetAccountQuery) (*models.AccountView, error) {
				if q.AccountNumber != "1234567890123456789" {
					return nil, fmt.Errorf("unexpected account %s", q.AccountNumber)
				}
				return aTestAccountView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			getFn:          func(cqrs.AdminGetAccountQuery) (*models.AccountView, error) { return nil, ledger.ErrAccountNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{}, &mockAdminQuerier{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, "/v1/admin/accounts/1234567890123456789", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["userId"] != "usr-001" || body["accountNumber"] != "1234567890123456789" {
				t.Errorf("unexpected body: %v", body)
			}
		})
	}
}

func TestAdminListUserAccounts(t *testing.T) {
	tests := []struct {
		name           string
		listUserFn     func(cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error)
		expectedStatus int
		expectedBody   string
		expectedCount  int
	}{
		{
			name: "success",
			listUserFn: func(q cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error) {
				if q.UserID != "usr-001" {
					return nil, fmt.Errorf("unexpected user %s", q.UserID)
				}
				return []models.AccountView{*aTestAccountView}, nil
			},
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name:           "holder without accounts",
			listUserFn:     func(cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error) { return nil, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"accounts":[]}`,
		},
		{
			name:           "unavailable - storage down",
			listUserFn:     func(cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error) { return nil, ledger.ErrTransientStorage },
			expectedStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{}, &mockAdminQuerier{listUserFn: tt.listUserFn})
			w := doRequest(router, http.MethodGet, "/v1/admin/users/usr-001/accounts", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("expected body %s, got %s", tt.expectedBody, w.Body.String())
			}
			if tt.expectedCount == 0 {
				return
			}
			var body struct {
				Accounts []map[string]any `json:"accounts"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if len(body.Accounts) != tt.expectedCount || body.Accounts[0]["userId"] != "usr-001" {
				t.Errorf("unexpected accounts: %v", body.Accounts)
			}
		})
	}
}

func TestAdminDeleteAccount(t *testing.T) {
	tests := []struct {
		name           string
		deleteFn       func(cqrs.DeleteAccountCommand) (int, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success - cascade counts removed transactions",
			deleteFn:       func(cqrs.DeleteAccountCommand) (int, error) { return 3, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"accountNumber":"1234567890123456789","removedTransactions":3}`,
		},
		{
			name:           "not found",
			deleteFn:       func(cqrs.DeleteAccountCommand) (int, error) { return 0, ledger.ErrAccountNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "conflict - activity left behind",
			deleteFn:       func(cqrs.DeleteAccountCommand) (int, error) { return 0, ledger.ErrAccountHasActivity },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{deleteFn: tt.deleteFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodDelete, "/v1/admin/accounts/1234567890123456789", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("expected body %s, got %s", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestAdminDeleteUserAccounts(t *testing.T) {
	first := ledger.Removal{AccountNumber: "1111111111111111111", Transactions: 2}
	tests := []struct {
		name           string
		deleteUserFn   func(cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error)
		expectedStatus int
		expectedCount  int
		expectError    bool
	}{
		{
			name: "success",
			deleteUserFn: func(cmd cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error) {
				if cmd.UserID != "usr-001" {
					return nil, fmt.Errorf("unexpected user %s", cmd.UserID)
				}
				return []ledger.Removal{first, {AccountNumber: "2222222222222222222"}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "user without accounts",
			deleteUserFn:   func(cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error) { return nil, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "stopped early - partial list reported",
			deleteUserFn: func(cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error) {
				return []ledger.Removal{first}, ledger.ErrTransientStorage
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCount:  1,
			expectError:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminTestRouter(&mockAdminCommander{deleteUserFn: tt.deleteUserFn}, &mockAdminQuerier{})
			w := doRequest(router, http.MethodDelete, "/v1/admin/users/usr-001/accounts", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			var resp DeleteUserAccountsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Deleted) != tt.expectedCount {
				t.Errorf("expected %d removals, got %d", tt.expectedCount, len(resp.Deleted))
			}
			if (resp.Error != "") != tt.expectError {
				t.Errorf("unexpected error field %q", resp.Error)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInvalidKind, http.StatusBadRequest},
		{ledger.ErrSameAccount, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", cqrs.ErrForbidden), http.StatusForbidden},
		{ledger.ErrAccountNotFound, http.StatusNotFound},
		{ledger.ErrDuplicateIdentity, http.StatusConflict},
		{ledger.ErrAccountHasActivity, http.StatusConflict},
		{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{ledger.ErrTransientStorage, http.StatusServiceUnavailable},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
