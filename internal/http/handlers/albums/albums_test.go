package albums

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/services/auth"
	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

type fakeStore struct {
	storage.Storage
	created []string
	renamed map[string]string
	deleted []string
}

func (f *fakeStore) GetMember(_ context.Context, _, userID string) (types.Member, error) {
	switch userID {
	case "1":
		return types.Member{UserID: "1", Role: types.RoleOwner}, nil
	case "2":
		return types.Member{UserID: "2", Role: types.RoleGuest}, nil
	case "3":
		return types.Member{UserID: "3", Role: types.RoleMember, Permissions: types.Permissions{CanEdit: true, CanDelete: true}}, nil
	case "4":
		return types.Member{UserID: "4", Role: types.RolePending}, nil
	}
	return types.Member{}, storage.ErrNotFound
}

func (f *fakeStore) ListActiveAlbums(_ context.Context, accountID string) ([]types.Album, error) {
	return []types.Album{{ID: "5", AccountID: accountID, Title: "Summer"}}, nil
}

func (f *fakeStore) CreateAlbum(_ context.Context, accountID, title, createdBy string) (string, error) {
	f.created = append(f.created, title)
	return "6", nil
}

func (f *fakeStore) GetAlbum(_ context.Context, albumID string) (types.Album, error) {
	if albumID != "5" {
		return types.Album{}, storage.ErrNotFound
	}
	return types.Album{ID: "5", AccountID: "7", Title: "Summer"}, nil
}

func (f *fakeStore) RenameAlbum(_ context.Context, albumID, title string) error {
	if f.renamed == nil {
		f.renamed = make(map[string]string)
	}
	f.renamed[albumID] = title
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, table, rowID string) (bool, error) {
	f.deleted = append(f.deleted, table+"/"+rowID)
	return true, nil
}

func newHandlers(store *fakeStore) *AlbumHandlers {
	return NewAlbumHandlers(store, access.NewService(store), zap.NewNop())
}

func request(method, userID, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = auth.WithSession(ctx, auth.Session{UserID: userID})
	return req.WithContext(ctx)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestList(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		wantCode int
	}{
		{"guest reads", "2", http.StatusOK},
		{"pending member", "4", http.StatusForbidden},
		{"outsider", "9", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHandlers(&fakeStore{}).List().ServeHTTP(rec, request(http.MethodGet, tt.userID, "", map[string]string{"account_id": "7"}))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var albums []types.Album
			if err := json.Unmarshal(decode(t, rec).Data, &albums); err != nil || len(albums) != 1 {
				t.Fatalf("expected one album in data, got %v err=%v", albums, err)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		body      string
		wantCode  int
		wantTitle string
	}{
		{"owner", "1", `{"title":"  Beach  "}`, http.StatusCreated, "Beach"},
		{"blank title", "1", `{"title":"   "}`, http.StatusBadRequest, ""},
		{"missing title", "1", `{}`, http.StatusBadRequest, ""},
		{"empty body", "1", ``, http.StatusBadRequest, ""},
		{"guest without can_add", "2", `{"title":"Beach"}`, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			rec := httptest.NewRecorder()
			newHandlers(store).Create().ServeHTTP(rec, request(http.MethodPost, tt.userID, tt.body, map[string]string{"account_id": "7"}))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantTitle == "" {
				if len(store.created) != 0 {
					t.Fatalf("nothing may be created, got %v", store.created)
				}
				return
			}
			if len(store.created) != 1 || store.created[0] != tt.wantTitle {
				t.Fatalf("expected %q created, got %v", tt.wantTitle, store.created)
			}
			var data map[string]string
			if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil || data["id"] != "6" {
				t.Fatalf("expected the new id in data, got %v err=%v", data, err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		albumID  string
		wantCode int
	}{
		{"member", "2", "5", http.StatusOK},
		{"unknown album", "2", "8", http.StatusNotFound},
		{"bad id", "2", "x", http.StatusBadRequest},
		{"outsider", "9", "5", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHandlers(&fakeStore{}).Get().ServeHTTP(rec, request(http.MethodGet, tt.userID, "", map[string]string{"album_id": tt.albumID}))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var album types.Album
			if err := json.Unmarshal(decode(t, rec).Data, &album); err != nil || album.ID != "5" {
				t.Fatalf("expected album 5 in data, got %+v err=%v", album, err)
			}
		})
	}
}

func TestRename(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		body     string
		wantCode int
	}{
		{"member with can_edit", "3", `{"title":" Summer 2025 "}`, http.StatusOK},
		{"owner", "1", `{"title":"Summer 2025"}`, http.StatusOK},
		{"guest without can_edit", "2", `{"title":"Summer 2025"}`, http.StatusForbidden},
		{"blank title", "3", `{"title":" "}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			rec := httptest.NewRecorder()
			newHandlers(store).Rename().ServeHTTP(rec, request(http.MethodPatch, tt.userID, tt.body, map[string]string{"album_id": "5"}))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if len(store.renamed) != 0 {
					t.Fatalf("nothing may be renamed, got %v", store.renamed)
				}
				return
			}
			if store.renamed["5"] != "Summer 2025" {
				t.Fatalf("expected trimmed title stored, got %q", store.renamed["5"])
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		wantCode int
	}{
		{"member with can_delete", "3", http.StatusOK},
		{"guest without can_delete", "2", http.StatusForbidden},
		{"pending member", "4", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			rec := httptest.NewRecorder()
			newHandlers(store).Delete().ServeHTTP(rec, request(http.MethodDelete, tt.userID, "", map[string]string{"album_id": "5"}))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				if len(store.deleted) != 1 || store.deleted[0] != storage.TableAlbums+"/5" {
					t.Fatalf("expected album soft-deleted, got %v", store.deleted)
				}
			} else if len(store.deleted) != 0 {
				t.Fatalf("nothing may be deleted, got %v", store.deleted)
			}
		})
	}
}
