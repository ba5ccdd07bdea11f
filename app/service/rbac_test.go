package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	findPermissionByIDQuery   = `(?s)FROM permissions WHERE id = \? AND workspace_id = \?`
	insertRoleQuery           = `(?s)INSERT INTO roles \(id, workspace_id, name, description, created_at, updated_at\)`
	addRolePermissionQuery    = `INSERT IGNORE INTO roles_permissions \(role_id, permission_id, workspace_id, created_at\)`
	deleteRolePermissionsLink = `DELETE FROM roles_permissions WHERE permission_id = \?`
	deleteKeyPermissionsLink  = `DELETE FROM keys_permissions WHERE permission_id = \?`
	deletePermissionQuery     = `DELETE FROM permissions WHERE id = \?`
	listRolesQuery            = `(?s)FROM roles WHERE workspace_id = \? ORDER BY name ASC`
	listRolePermissionIDs     = `SELECT permission_id FROM roles_permissions WHERE role_id = \?`
)

func TestRBACService_CreatePermission_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findPermissionByNameQuery).
		WithArgs("documents.read", "ws_1").
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow("perm_1", "ws_1", "documents.read", nil, fixedTime, fixedTime))
	mock.ExpectRollback()

	_, err := svc.CreatePermission(context.Background(), userCaller(), &types.CreatePermissionRequest{Name: "documents.read"})
	if !errors.Is(err, service.ErrPermissionExists) {
		t.Fatalf("expected ErrPermissionExists, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestRBACService_CreateRole_WithPermissions(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectBegin()
	mock.ExpectExec(insertRoleQuery).
		WithArgs(sqlmock.AnyArg(), "ws_1", "editor", nullArg{}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(findPermissionByIDQuery).
		WithArgs("perm_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow("perm_1", "ws_1", "documents.write", nil, fixedTime, fixedTime))
	mock.ExpectExec(addRolePermissionQuery).
		WithArgs(sqlmock.AnyArg(), "perm_1", "ws_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "role.create", true)
	expectAudit(mock, "authorization.connect_role_and_permission", true)
	mock.ExpectCommit()

	res, err := svc.CreateRole(context.Background(), userCaller(), &types.CreateRoleRequest{
		Name:          "editor",
		PermissionIDs: []string{"perm_1"},
	})
	if err != nil {
		t.Fatalf("create role failed: %v", err)
	}
	if res.ID == "" {
		t.Fatalf("expected role id")
	}
	expectNoMoreCalls(t, mock)
}

func TestRBACService_CreateRole_UnknownPermissionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectBegin()
	mock.ExpectExec(insertRoleQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(findPermissionByIDQuery).
		WithArgs("perm_missing", "ws_1").
		WillReturnRows(sqlmock.NewRows(permissionColumns))
	mock.ExpectRollback()

	_, err := svc.CreateRole(context.Background(), userCaller(), &types.CreateRoleRequest{
		Name:          "editor",
		PermissionIDs: []string{"perm_missing"},
	})
	if !errors.Is(err, service.ErrPermissionNotFound) {
		t.Fatalf("expected ErrPermissionNotFound, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestRBACService_DeletePermission_RemovesLinks(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findPermissionByIDQuery).
		WithArgs("perm_1", "ws_1").
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow("perm_1", "ws_1", "documents.read", nil, fixedTime, fixedTime))
	mock.ExpectExec(deleteRolePermissionsLink).WithArgs("perm_1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteKeyPermissionsLink).WithArgs("perm_1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(deletePermissionQuery).WithArgs("perm_1").WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, "permission.delete", true)
	mock.ExpectCommit()

	if err := svc.DeletePermission(context.Background(), userCaller(), &types.PermissionRequest{PermissionID: "perm_1"}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	expectNoMoreCalls(t, mock)
}

func TestRBACService_ListRoles(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectQuery(listRolesQuery).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(roleColumns).AddRow("role_1", "ws_1", "editor", "Can edit", fixedTime, fixedTime))
	mock.ExpectQuery(listRolePermissionIDs).
		WithArgs("role_1").
		WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow("perm_1").AddRow("perm_2"))

	roles, err := svc.ListRoles(context.Background(), userCaller())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(roles) != 1 || len(roles[0].PermissionIDs) != 2 {
		t.Fatalf("unexpected roles: %+v", roles)
	}
	expectNoMoreCalls(t, mock)
}

func TestRBACService_WrapsUnexpectedErrors(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewRBACService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(findPermissionByIDQuery).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := svc.DeletePermission(context.Background(), userCaller(), &types.PermissionRequest{PermissionID: "perm_1"})
	if rpcerr.CodeOf(err) != rpcerr.CodeInternalServerError {
		t.Fatalf("expected internal error, got %v", err)
	}
	expectNoMoreCalls(t, mock)
}
