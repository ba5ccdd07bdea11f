package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/middleware"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"
	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/labstack/echo/v4"
)

func testCookies() *auth.CookieService {
	return auth.NewCookieService(config.SessionConfig{
		Secret:     "0123456789abcdef0123456789abcdef",
		RefreshTTL: time.Hour,
		CookieName: "console-session",
	})
}

func userCaller() *auth.Caller {
	return &auth.Caller{
		ActorType:   entity.ActorTypeUser,
		ActorID:     "user_1",
		Email:       "jane@example.com",
		OrgID:       "org_1",
		WorkspaceID: "ws_1",
	}
}

// newContext builds an echo context for a JSON POST, with caller set when non-nil.
func newContext(body string, caller *auth.Caller) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/rpc/test", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	if caller != nil {
		ctx.Set(middleware.ContextKeyCaller, caller)
	}
	return ctx, rec
}

type fakeAPIService struct {
	service.APIService
	created  *types.CreateAPIRequest
	renamed  *types.UpdateAPINameRequest
	getErr   error
	apis     []dto.API
	seenWsID string
}

func (f *fakeAPIService) Create(_ context.Context, caller *auth.Caller, req *types.CreateAPIRequest) (*dto.IDResult, error) {
	f.created = req
	f.seenWsID = caller.WorkspaceID
	return &dto.IDResult{ID: "api_1"}, nil
}

func (f *fakeAPIService) List(context.Context, *auth.Caller) ([]dto.API, error) {
	return f.apis, nil
}

func (f *fakeAPIService) Get(_ context.Context, _ *auth.Caller, req *types.APIRequest) (*dto.API, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dto.API{ID: req.APIID, Name: "payments"}, nil
}

func (f *fakeAPIService) UpdateName(_ context.Context, _ *auth.Caller, req *types.UpdateAPINameRequest) error {
	f.renamed = req
	return nil
}
