package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	findAPIByKeyAuthQuery    = `(?s)SELECT id, workspace_id, key_auth_id, name, ip_whitelist, delete_protection, created_at, updated_at, deleted_at\s+FROM apis WHERE key_auth_id = \? AND workspace_id = \? AND deleted_at IS NULL`
	insertKeyQuery           = "(?s)INSERT INTO `keys` \\(id, key_auth_id"
	findKeyByIDQuery         = "(?s)FROM `keys` WHERE id = \\? AND workspace_id = \\? AND deleted_at IS NULL"
	findKeysByIDsQuery       = "(?s)FROM `keys` WHERE workspace_id = \\? AND deleted_at IS NULL AND id IN \\(\\?, \\?\\)"
	updateKeyQuery           = "(?s)UPDATE `keys` SET\\s+name = \\?"
	softDeleteKeysQuery      = "(?s)UPDATE `keys` SET deleted_at = \\? WHERE deleted_at IS NULL AND id IN \\(\\?, \\?\\)"
	findIdentityByExternalID = `(?s)FROM identities WHERE external_id = \? AND workspace_id = \? AND deleted_at IS NULL`
	insertIdentityQuery      = `(?s)INSERT INTO identities \(id, workspace_id, external_id`
	findRoleQuery            = `(?s)FROM roles WHERE id = \? AND workspace_id = \?`
	addKeyRoleQuery          = `INSERT IGNORE INTO keys_roles \(key_id, role_id, workspace_id, created_at\)`
)

func TestKeyService_Create_ReturnsPlaintextKey(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findAPIByKeyAuthQuery).
		WithArgs("ks_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(apiColumns).AddRow("api_1", "ws_1", "ks_1", "payments", nil, false, fixedTime, fixedTime, nil))
	mock.ExpectExec(insertKeyQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "key.create", true)
	mock.ExpectCommit()

	name := "billing"
	res, err := svc.Create(context.Background(), userCaller(), &types.CreateKeyRequest{
		KeyAuthID: "ks_1",
		Prefix:    "test",
		Name:      &name,
		Meta:      json.RawMessage(`{"plan":"pro"}`),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(res.Key, "test_") {
		t.Fatalf("expected prefixed key, got %q", res.Key)
	}
	if !strings.HasPrefix(res.KeyID, "key_") {
		t.Fatalf("unexpected key id %q", res.KeyID)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_Create_WithExternalIDCreatesIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findAPIByKeyAuthQuery).
		WithArgs("ks_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(apiColumns).AddRow("api_1", "ws_1", "ks_1", "payments", nil, false, fixedTime, fixedTime, nil))
	mock.ExpectQuery(findIdentityByExternalID).
		WithArgs("customer_42", "ws_1").
		WillReturnRows(sqlmock.NewRows(identityColumns))
	mock.ExpectExec(insertIdentityQuery).
		WithArgs(sqlmock.AnyArg(), "ws_1", "customer_42", "default", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertKeyQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "key.create", true)
	mock.ExpectCommit()

	externalID := "customer_42"
	if _, err := svc.Create(context.Background(), userCaller(), &types.CreateKeyRequest{
		KeyAuthID:  "ks_1",
		ExternalID: &externalID,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_Create_UnknownKeyAuth(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findAPIByKeyAuthQuery).
		WithArgs("ks_missing", "ws_1").
		WillReturnRows(sqlmock.NewRows(apiColumns))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), userCaller(), &types.CreateKeyRequest{KeyAuthID: "ks_missing"})
	if !errors.Is(err, service.ErrKeyAuthNotFound) {
		t.Fatalf("expected ErrKeyAuthNotFound, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_Delete_FailsWhenAnyKeyIsUnknown(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findKeysByIDsQuery).
		WithArgs("ws_1", "key_1", "key_2").
		WillReturnRows(sqlmock.NewRows(keyColumns).AddRow(keyRow("key_1", "ws_1", nil, true)...))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), userCaller(), &types.DeleteKeysRequest{KeyIDs: []string{"key_1", "key_2", "key_1"}})
	if !errors.Is(err, service.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_Delete_AuditsEveryKey(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findKeysByIDsQuery).
		WithArgs("ws_1", "key_1", "key_2").
		WillReturnRows(sqlmock.NewRows(keyColumns).
			AddRow(keyRow("key_1", "ws_1", nil, true)...).
			AddRow(keyRow("key_2", "ws_1", nil, true)...))
	mock.ExpectExec(softDeleteKeysQuery).
		WithArgs(sqlmock.AnyArg(), "key_1", "key_2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	expectAudit(mock, "key.delete", true)
	expectAudit(mock, "key.delete", true)
	mock.ExpectCommit()

	if err := svc.Delete(context.Background(), userCaller(), &types.DeleteKeysRequest{KeyIDs: []string{"key_1", "key_2"}}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_UpdateRatelimit_DisableClearsFields(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	row := keyRow("key_1", "ws_1", nil, true)
	row[16] = true
	row[17] = int64(10)
	row[18] = int64(60000)

	mock.ExpectBegin()
	mock.ExpectQuery(findKeyByIDQuery).
		WithArgs("key_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(keyColumns).AddRow(row...))
	mock.ExpectExec(updateKeyQuery).
		WithArgs("my key", nullArg{}, nullArg{}, nullArg{}, nullArg{}, true, nullArg{}, nullArg{}, nullArg{}, nullArg{},
			nullArg{}, nullArg{}, nullArg{}, sqlmock.AnyArg(), "key_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "key.update", true)
	mock.ExpectCommit()

	if err := svc.UpdateRatelimit(context.Background(), userCaller(), &types.UpdateKeyRatelimitRequest{KeyID: "key_1"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_UpdateName_UnknownKey(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findKeyByIDQuery).
		WithArgs("key_missing", "ws_1").
		WillReturnRows(sqlmock.NewRows(keyColumns))
	mock.ExpectRollback()

	name := "renamed"
	err := svc.UpdateName(context.Background(), userCaller(), &types.UpdateKeyNameRequest{KeyID: "key_missing", Name: &name})
	if !errors.Is(err, service.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestKeyService_ConnectRole(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewKeyService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findKeyByIDQuery).
		WithArgs("key_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(keyColumns).AddRow(keyRow("key_1", "ws_1", nil, true)...))
	mock.ExpectQuery(findRoleQuery).
		WithArgs("role_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(roleColumns).AddRow("role_1", "ws_1", "admin", nil, fixedTime, fixedTime))
	mock.ExpectExec(addKeyRoleQuery).
		WithArgs("key_1", "role_1", "ws_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "authorization.connect_role_and_key", true)
	mock.ExpectCommit()

	if err := svc.ConnectRole(context.Background(), userCaller(), &types.KeyRoleRequest{KeyID: "key_1", RoleID: "role_1"}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}
