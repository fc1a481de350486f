package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/internal/testutil"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/realtime"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var errMissingTokenResp = httpErr{Error: "missing or malformed token"}

type testApp struct {
	server  *Server
	conf    *core.Config
	users   user.Service
	school  *school.Service
	tokens  *auth.TokenManager
	hub     *realtime.Hub
	mailer  *emailsvc.ConsoleServiceMock
	logger  *testutil.Logger
	metrics *Metrics
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()
	db := inmemdb.Open()

	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	users := user.NewService(inmemdb.NewUserRepository(db), inmemdb.NewSchoolRepository(db), mailer, conf)
	tokens := auth.NewTokenManager(conf.SecretKey, conf.JWTIssuer, conf.JWTExpirationDelta)
	hub := realtime.NewHub(conf.Realtime, logger)
	metrics := NewMetrics(hub)
	schoolSvc := school.NewService(inmemdb.NewSchoolRepository(db), users, metrics.CountMarks(hub))

	app := &testApp{
		conf:    conf,
		users:   users,
		school:  schoolSvc,
		tokens:  tokens,
		hub:     hub,
		mailer:  mailer,
		logger:  logger,
		metrics: metrics,
	}
	app.server = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		AuthSvc:    auth.NewService(users, tokens, nil, validate),
		UserSvc:    users,
		SchoolSvc:  schoolSvc,
		Hub:        hub,
		Metrics:    metrics,
	})
	t.Cleanup(hub.Close)
	return app
}

func (app *testApp) createUser(t *testing.T, name, email string, role user.Role) user.User {
	return testutil.CreateUser(t, app.users, name, email, role)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, _, err := app.tokens.Issue(usr)
	require.NoError(t, err)
	return token
}

// run serves tt and checks its code and, when wantData is set, its body.
func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	return rec
}

type httpErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	return marshallObj(t, objs)
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (body %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
