package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/honour"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/roster"
	"github.com/syllabix/syllabix/core/user"
	emailsvc "github.com/syllabix/syllabix/services/email"
	"github.com/syllabix/syllabix/services/metrics"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
	testutil "github.com/syllabix/syllabix/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf    *core.Config
	db      *sqlx.DB
	srv     *Server
	metrics *metrics.Metrics
	usrRepo user.Repository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(t)
	db := testutil.PrepareDB(t)

	validate := validator.New()
	translator := core.NewTranslator()
	InitValidators(validate, translator)
	core.ParseEmailTemplates(logger)

	usrRepo := sqlxrepos.NewUserRepository(db)
	regSvc := regulation.NewService(db, sqlxrepos.NewRegulationRepository(db))
	m := metrics.New(prometheus.NewRegistry())

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Metrics:    m,
		Validate:   validate,
		Translator: translator,

		UserSvc:       user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf),
		DepartmentSvc: department.NewService(sqlxrepos.NewDepartmentRepository(db)),
		RegulationSvc: regSvc,
		ClusterSvc:    cluster.NewService(db, sqlxrepos.NewClusterRepository(db), m),
		CourseSvc:     course.NewService(db, sqlxrepos.NewCourseRepository(db), regSvc),
		HonourSvc:     honour.NewService(sqlxrepos.NewHonourRepository(db), regSvc),
		RosterSvc:     roster.NewService(sqlxrepos.NewRosterRepository(db)),

		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{conf: conf, db: db, srv: srv, metrics: m, usrRepo: usrRepo}
}

func (app *testApp) admin(t *testing.T) user.User {
	return testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.edu", "", []string{user.RoleAdmin}, true)
}

func (app *testApp) student(t *testing.T) user.User {
	return testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.edu", "", []string{user.RoleStudent}, true)
}

func (app *testApp) do(method, path, token string, body ...interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if len(body) > 0 {
		_ = json.NewEncoder(&buf).Encode(body[0])
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{}
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.body != nil {
				rec = app.do(tt.method, tt.path, tt.token, tt.body)
			} else {
				rec = app.do(tt.method, tt.path, tt.token)
			}
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				want, err := json.Marshal(tt.wantData)
				require.NoError(t, err)
				assert.JSONEq(t, string(want), rec.Body.String())
			}
		})
	}
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_home(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Syllabix API!", rec.Body.String())
}

func TestServer_metrics(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))

	app.do(http.MethodGet, "/v1/departments", "")
	app.do(http.MethodGet, "/v1/departments", adminToken)
	app.do(http.MethodGet, "/v1/departments", adminToken)
	app.do(http.MethodGet, "/v1/departments/9b2f1e0c-4b6a-4f3e-9f59-0c8a5d2b7e11", adminToken)

	requests := app.metrics.HTTPRequestsTotal
	assert.Equal(t, float64(1), promtest.ToFloat64(requests.WithLabelValues("GET", "/v1/departments", "401")))
	assert.Equal(t, float64(2), promtest.ToFloat64(requests.WithLabelValues("GET", "/v1/departments", "200")))
	assert.Equal(t, float64(1), promtest.ToFloat64(requests.WithLabelValues("GET", "/v1/departments/:id", "404")))
}

func TestServer_jwt(t *testing.T) {
	app := newTestApp(t)
	student := app.student(t)

	expired := GetUserClaims(app.conf, student)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := GenerateToken(app.conf, expired)
	require.NoError(t, err)

	otherConf := core.NewTestConfig()
	otherConf.SecretKey = "not-the-secret"

	path := "/v1/users/me"
	invalid := httpErr{Error: "invalid or expired jwt"}
	app.run(t, []httpTest{
		{name: "no token", method: http.MethodGet, path: path, wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{name: "malformed token", method: http.MethodGet, path: path, token: "abc", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{name: "expired token", method: http.MethodGet, path: path, token: expiredToken, wantCode: http.StatusUnauthorized, wantData: invalid},
		{
			name: "wrong signature", method: http.MethodGet, path: path, token: getToken(t, otherConf, student),
			wantCode: http.StatusUnauthorized, wantData: invalid,
		},
	})

	rec := app.do(http.MethodGet, path, getToken(t, app.conf, student))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[user.User](t, rec)
	assert.Equal(t, student.ID, me.ID)
	assert.Equal(t, "hero", me.Username)
}

func Test_userApi_login(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.edu", "Curr1cul@!", []string{user.RoleStudent}, true)
	testutil.CreateUser(t, app.usrRepo, "N Dog", "ndog", "ndog@test.edu", "Curr1cul@!", []string{user.RoleStudent}, false)

	path := "/v1/users/login"
	app.run(t, []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: path, body: LoginRequest{},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", method: http.MethodPost, path: path, body: LoginRequest{Username: "nobody", Password: "Curr1cul@!"},
			wantCode: http.StatusBadRequest, wantData: httpErr{Error: "authentication failed"},
		},
		{
			name: "wrong password", method: http.MethodPost, path: path, body: LoginRequest{Username: "hero", Password: "lol"},
			wantCode: http.StatusBadRequest, wantData: httpErr{Error: "authentication failed"},
		},
		{
			name: "inactive user", method: http.MethodPost, path: path, body: LoginRequest{Username: "ndog", Password: "Curr1cul@!"},
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "account deactivated"},
		},
	})

	for _, uname := range []string{"hero", "hero@test.edu"} {
		rec := app.do(http.MethodPost, path, "", LoginRequest{Username: uname, Password: "Curr1cul@!"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[LoginResponse](t, rec)
		require.NotEmpty(t, resp.Token)

		rec = app.do(http.MethodGet, "/v1/users/me", resp.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "hero", decode[user.User](t, rec).Username)
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app := newTestApp(t)
	student := app.student(t)
	naughty := testutil.CreateUser(t, app.usrRepo, "N Dog", "ndog", "ndog@test.edu", "", []string{user.RoleStudent}, false)

	stale := GetUserClaims(app.conf, student, time.Now().Add(-2*app.conf.Server.JWTRefreshExpirationDelta).Unix())
	staleToken, err := GenerateToken(app.conf, stale)
	require.NoError(t, err)

	path := "/v1/users/token-refresh"
	app.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "inactive user", method: http.MethodPost, path: path, token: getToken(t, app.conf, naughty),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "account deactivated"},
		},
		{
			name: "refresh expired", method: http.MethodPost, path: path, token: staleToken,
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "refresh has expired"},
		},
	})

	rec := app.do(http.MethodPost, path, getToken(t, app.conf, student))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[LoginResponse](t, rec).Token)
}

func Test_userApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	student := app.student(t)
	emailsvc.ResetSentMessages()

	path := "/v1/users/password-reset"
	app.run(t, []httpTest{
		{name: "invalid email", method: http.MethodPost, path: path, body: PasswordResetRequest{Email: "lol"}, wantCode: http.StatusBadRequest},
		{name: "unknown email", method: http.MethodPost, path: path, body: PasswordResetRequest{Email: "nobody@test.edu"}, wantCode: http.StatusOK},
	})
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	rec := app.do(http.MethodPost, path, "", PasswordResetRequest{Email: student.Email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	require.Len(t, msg.To, 1)
	assert.Equal(t, student.Email, msg.To[0].Address)
	assert.Equal(t, "Password Reset", msg.Subject)
}

func Test_userApi_permissions(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin(t)
	student := app.student(t)
	other := testutil.CreateUser(t, app.usrRepo, "Other", "other", "other@test.edu", "", []string{user.RoleStudent}, true)

	studentToken := getToken(t, app.conf, student)
	adminToken := getToken(t, app.conf, admin)
	forbidden := httpErr{Error: "permission denied"}

	app.run(t, []httpTest{
		{name: "query requires admin", method: http.MethodGet, path: "/v1/users", token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "roles require admin", method: http.MethodGet, path: "/v1/users/roles", token: studentToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "own profile", method: http.MethodGet, path: "/v1/users/" + student.ID, token: studentToken, wantCode: http.StatusOK},
		{name: "other profile", method: http.MethodGet, path: "/v1/users/" + other.ID, token: studentToken, wantCode: http.StatusNotFound, wantData: httpErr{Error: "not found"}},
		{name: "admin reads any profile", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken, wantCode: http.StatusOK},
		{name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "admin deletes user", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken, wantCode: http.StatusNoContent},
	})

	rec := app.do(http.MethodGet, "/v1/users?role="+user.RoleStudent, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	users := decode[[]user.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, student.ID, users[0].ID)
}

func Test_departmentApi(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))
	studentToken := getToken(t, app.conf, app.student(t))

	app.run(t, []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/departments", token: studentToken,
			body: department.NewDepartment{Code: "CSE", Name: "Computer Science"}, wantCode: http.StatusForbidden,
		},
		{
			name: "create invalid", method: http.MethodPost, path: "/v1/departments", token: adminToken,
			body: department.NewDepartment{Name: "Computer Science"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "not found", method: http.MethodGet, path: "/v1/departments/9b2f1e0c-4b6a-4f3e-9f59-0c8a5d2b7e11", token: studentToken,
			wantCode: http.StatusNotFound, wantData: httpErr{Error: "department not found"},
		},
	})

	rec := app.do(http.MethodPost, "/v1/departments", adminToken, department.NewDepartment{Code: "cse", Name: "Computer Science"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dept := decode[department.Department](t, rec)
	assert.Equal(t, "CSE", dept.Code)

	rec = app.do(http.MethodGet, "/v1/departments", studentToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	depts := decode[[]department.Department](t, rec)
	require.Len(t, depts, 1)
	assert.Equal(t, dept.ID, depts[0].ID)

	rec = app.do(http.MethodPost, "/v1/departments", adminToken, department.NewDepartment{Code: "CSE", Name: "Again"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do(http.MethodDelete, "/v1/departments/"+dept.ID, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func Test_regulationApi_archived(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))
	dept := testutil.CreateDepartment(t, app.db, "CSE", "Computer Science")
	draft := testutil.CreateRegulation(t, app.db, dept.ID, "R2021")
	archived := testutil.CreateRegulation(t, app.db, dept.ID, "R2017", regulation.StatusArchived)

	stmt := regulation.NewStatement{Kind: regulation.KindPEO, Body: "Graduates will excel"}
	app.run(t, []httpTest{
		{
			name: "archived statement", method: http.MethodPost, path: "/v1/regulations/" + archived.ID + "/statements", token: adminToken,
			body: stmt, wantCode: http.StatusBadRequest, wantData: httpErr{Error: "regulation is archived"},
		},
		{
			name: "archived semester", method: http.MethodPost, path: "/v1/regulations/" + archived.ID + "/semesters", token: adminToken,
			body: map[string]interface{}{"number": 1}, wantCode: http.StatusBadRequest, wantData: httpErr{Error: "regulation is archived"},
		},
		{
			name: "archived honour card", method: http.MethodPost, path: "/v1/regulations/" + archived.ID + "/honour-cards", token: adminToken,
			body: honour.NewCard{Title: "Honours in AI"}, wantCode: http.StatusBadRequest, wantData: httpErr{Error: "regulation is archived"},
		},
		{
			name: "draft statement", method: http.MethodPost, path: "/v1/regulations/" + draft.ID + "/statements", token: adminToken,
			body: stmt, wantCode: http.StatusCreated,
		},
	})

	rec := app.do(http.MethodGet, "/v1/regulations/"+draft.ID+"/statements", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stmts := decode[[]regulation.Statement](t, rec)
	require.Len(t, stmts, 1)
	assert.Equal(t, 1, stmts[0].Number)
	assert.Equal(t, core.VisibilityUnique, stmts[0].Visibility)
}

func Test_clusterApi_sharing(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))

	cse := testutil.CreateDepartment(t, app.db, "CSE", "Computer Science")
	ece := testutil.CreateDepartment(t, app.db, "ECE", "Electronics")
	testutil.CreateCluster(t, app.db, "Circuits & Code", cse.ID, ece.ID)
	regCSE := testutil.CreateRegulation(t, app.db, cse.ID, "R2024")
	regECE := testutil.CreateRegulation(t, app.db, ece.ID, "R2024")
	peo := testutil.CreateStatement(t, app.db, regCSE.ID, regulation.KindPEO, 1, "Graduates will excel", core.VisibilityCluster)
	po := testutil.CreateStatement(t, app.db, regCSE.ID, regulation.KindPO, 1, "Engineering knowledge", core.VisibilityUnique)

	adoptions := "/v1/regulations/" + regECE.ID + "/adoptions"
	app.run(t, []httpTest{
		{
			name: "unknown kind", method: http.MethodGet, path: "/v1/regulations/" + regECE.ID + "/available?kind=LOL", token: adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unique item", method: http.MethodPost, path: adoptions, token: adminToken,
			body:     cluster.AdoptionChange{Mode: cluster.ModeAdd, Kind: cluster.KindPO, ItemIDs: []string{po.ID}},
			wantCode: http.StatusBadRequest,
		},
	})

	rec := app.do(http.MethodGet, "/v1/regulations/"+regECE.ID+"/available?kind=PEO", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	available := decode[[]cluster.AvailableItem](t, rec)
	require.Len(t, available, 1)
	assert.Equal(t, peo.ID, available[0].ID)
	assert.False(t, available[0].Adopted)

	rec = app.do(http.MethodPost, adoptions, adminToken, cluster.AdoptionChange{Mode: cluster.ModeAdd, Kind: cluster.KindPEO, ItemIDs: []string{peo.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	adopted := decode[[]cluster.AdoptedItem](t, rec)
	require.Len(t, adopted, 1)
	assert.Equal(t, peo.ID, adopted[0].ID)
	assert.Equal(t, cse.ID, adopted[0].DepartmentID)

	rec = app.do(http.MethodGet, "/v1/regulations/"+regECE.ID+"/available?kind=PEO", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	available = decode[[]cluster.AvailableItem](t, rec)
	require.Len(t, available, 1)
	assert.True(t, available[0].Adopted)

	// going UNIQUE withdraws the item from adopters
	rec = app.do(http.MethodPut, "/v1/items/PEO/"+peo.ID+"/visibility", adminToken, cluster.VisibilityChange{Visibility: core.VisibilityUnique})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, adoptions, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[[]cluster.AdoptedItem](t, rec))
}

func Test_honourApi(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))
	dept := testutil.CreateDepartment(t, app.db, "CSE", "Computer Science")
	reg := testutil.CreateRegulation(t, app.db, dept.ID, "R2024")

	rec := app.do(http.MethodPost, "/v1/regulations/"+reg.ID+"/honour-cards", adminToken, honour.NewCard{Title: "Honours in AI"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decode[honour.Card](t, rec)

	rec = app.do(http.MethodPost, "/v1/regulations/"+reg.ID+"/honour-cards", adminToken, honour.NewCard{Title: "Honours in Data"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	otherCard := decode[honour.Card](t, rec)

	rec = app.do(http.MethodPost, "/v1/honour-cards/"+card.ID+"/verticals", adminToken, honour.NewVertical{Name: "Machine Learning"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vert := decode[honour.Vertical](t, rec)
	assert.Equal(t, card.ID, vert.CardID)

	rec = app.do(http.MethodPost, "/v1/honour-cards/"+card.ID+"/verticals/"+vert.ID+"/courses", adminToken, honour.NewCourse{
		Code: "CCS3341", Title: "Deep Learning", Lecture: 2, Practical: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	crs := decode[honour.Course](t, rec)
	assert.Equal(t, vert.ID, crs.VerticalID)
	assert.Equal(t, 3.0, crs.Credits)

	rec = app.do(http.MethodPost, "/v1/honour-cards/"+card.ID+"/verticals/"+vert.ID+"/courses", adminToken, honour.NewCourse{
		Code: "CCS3342", Title: "Reinforcement Learning", Lecture: 3, Tutorial: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4.0, decode[honour.Course](t, rec).Credits)

	app.run(t, []httpTest{
		{
			name: "vertical of another card", method: http.MethodPut, path: "/v1/honour-cards/" + otherCard.ID + "/verticals/" + vert.ID,
			token: adminToken, body: honour.NewVertical{Name: "Stolen"}, wantCode: http.StatusNotFound,
			wantData: httpErr{Error: "vertical not found"},
		},
		{
			name: "course of another card", method: http.MethodDelete, path: "/v1/honour-cards/" + otherCard.ID + "/courses/" + crs.ID,
			token: adminToken, wantCode: http.StatusNotFound, wantData: httpErr{Error: "honour course not found"},
		},
		{
			name: "duplicate code", method: http.MethodPost, path: "/v1/honour-cards/" + card.ID + "/verticals/" + vert.ID + "/courses",
			token: adminToken, body: honour.NewCourse{Code: "CCS3341", Title: "Again", Lecture: 3}, wantCode: http.StatusBadRequest,
		},
	})

	rec = app.do(http.MethodGet, "/v1/honour-cards/"+card.ID, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[honour.Card](t, rec)
	require.Len(t, got.Verticals, 1)
	require.Len(t, got.Verticals[0].Courses, 2)
	assert.Equal(t, "CCS3341", got.Verticals[0].Courses[0].Code)
	assert.Equal(t, 7.0, got.Verticals[0].Credits)

	rec = app.do(http.MethodDelete, "/v1/honour-cards/"+card.ID+"/courses/"+crs.ID, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/v1/honour-cards/"+card.ID, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4.0, decode[honour.Card](t, rec).Verticals[0].Credits)
}

func Test_rosterApi(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))
	studentToken := getToken(t, app.conf, app.student(t))
	dept := testutil.CreateDepartment(t, app.db, "CSE", "Computer Science")
	reg := testutil.CreateRegulation(t, app.db, dept.ID, "R2024")
	sem := testutil.CreateSemester(t, app.db, reg.ID, 1, core.VisibilityUnique)
	crs := testutil.CreateCourse(t, app.db, sem, "MA3151", "Matrices and Calculus", 3, 1, 0, core.VisibilityUnique)

	app.run(t, []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/teachers", token: studentToken,
			body: roster.NewTeacher{StaffID: "T001", Name: "Ada", DepartmentID: dept.ID}, wantCode: http.StatusForbidden,
		},
	})

	rec := app.do(http.MethodPost, "/v1/teachers", adminToken, roster.NewTeacher{StaffID: "t001", Name: "Ada", DepartmentID: dept.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tch := decode[roster.Teacher](t, rec)
	assert.Equal(t, "T001", tch.StaffID)

	rec = app.do(http.MethodPost, "/v1/students", adminToken, roster.NewStudent{
		RegisterNumber: "2024CS001", Name: "Grace", DepartmentID: dept.ID, RegulationID: reg.ID, Batch: 2024,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[roster.Student](t, rec).CurrentSemester)

	rec = app.do(http.MethodGet, "/v1/students?batch=2024&department_id="+dept.ID, studentToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]roster.Student](t, rec), 1)

	alloc := roster.NewAllocation{TeacherID: tch.ID, CourseID: crs.ID, AcademicYear: "2024-25", Section: "a"}
	rec = app.do(http.MethodPost, "/v1/allocations", adminToken, alloc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "A", decode[roster.Allocation](t, rec).Section)

	rec = app.do(http.MethodPost, "/v1/allocations", adminToken, alloc)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do(http.MethodGet, "/v1/allocations?teacher_id="+tch.ID, studentToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]roster.Allocation](t, rec), 1)
}

func Test_regulationApi_overview(t *testing.T) {
	app := newTestApp(t)
	adminToken := getToken(t, app.conf, app.admin(t))
	studentToken := getToken(t, app.conf, app.student(t))

	cse := testutil.CreateDepartment(t, app.db, "CSE", "Computer Science")
	ece := testutil.CreateDepartment(t, app.db, "ECE", "Electronics")
	testutil.CreateCluster(t, app.db, "Circuits & Code", cse.ID, ece.ID)
	regCSE := testutil.CreateRegulation(t, app.db, cse.ID, "R2024")
	reg := testutil.CreateRegulation(t, app.db, ece.ID, "R2024")

	sharedPEO := testutil.CreateStatement(t, app.db, regCSE.ID, regulation.KindPEO, 1, "Graduates will excel", core.VisibilityCluster)
	sharedSem := testutil.CreateSemester(t, app.db, regCSE.ID, 1, core.VisibilityCluster)
	sharedCrs := testutil.CreateCourse(t, app.db, sharedSem, "MA3151", "Matrices and Calculus", 3, 1, 0, core.VisibilityCluster)
	testutil.Adopt(t, app.db, reg.ID, cluster.KindPEO, sharedPEO.ID, cse.ID)
	testutil.Adopt(t, app.db, reg.ID, cluster.KindSemester, sharedSem.ID, cse.ID)
	testutil.Adopt(t, app.db, reg.ID, cluster.KindCourse, sharedCrs.ID, cse.ID)

	testutil.CreateStatement(t, app.db, reg.ID, regulation.KindVision, 1, "Be a centre of excellence", core.VisibilityUnique)
	testutil.CreateStatement(t, app.db, reg.ID, regulation.KindPO, 1, "Engineering knowledge", core.VisibilityUnique)
	sem2 := testutil.CreateSemester(t, app.db, reg.ID, 2, core.VisibilityUnique)
	sem1 := testutil.CreateSemester(t, app.db, reg.ID, 1, core.VisibilityUnique)
	testutil.CreateCourse(t, app.db, sem2, "EC3251", "Circuit Analysis", 3, 1, 0, core.VisibilityUnique)
	testutil.CreateCourse(t, app.db, sem1, "EC3151", "Electronic Devices", 3, 0, 2, core.VisibilityUnique)
	testutil.CreateCourse(t, app.db, sem1, "PH3151", "Engineering Physics", 3, 0, 0, core.VisibilityUnique)

	rec := app.do(http.MethodPost, "/v1/regulations/"+reg.ID+"/honour-cards", adminToken, honour.NewCard{Title: "Honours in VLSI"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decode[honour.Card](t, rec)
	rec = app.do(http.MethodPost, "/v1/honour-cards/"+card.ID+"/verticals", adminToken, honour.NewVertical{Name: "Chip Design"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vert := decode[honour.Vertical](t, rec)
	rec = app.do(http.MethodPost, "/v1/honour-cards/"+card.ID+"/verticals/"+vert.ID+"/courses", adminToken, honour.NewCourse{
		Code: "CEC3341", Title: "VLSI Design", Lecture: 3, Practical: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	app.run(t, []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/regulations/" + reg.ID + "/overview", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "not found", method: http.MethodGet, path: "/v1/regulations/9b2f1e0c-4b6a-4f3e-9f59-0c8a5d2b7e11/overview", token: studentToken,
			wantCode: http.StatusNotFound, wantData: httpErr{Error: "regulation not found"},
		},
	})

	rec = app.do(http.MethodGet, "/v1/regulations/"+reg.ID+"/overview", studentToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ov := decode[regulationOverview](t, rec)

	assert.Equal(t, reg.ID, ov.ID)
	assert.Equal(t, "R2024", ov.Code)

	stmtKinds := make([]string, 0, len(ov.Statements))
	for _, stmt := range ov.Statements {
		assert.Equal(t, reg.ID, stmt.RegulationID)
		stmtKinds = append(stmtKinds, stmt.Kind)
	}
	assert.ElementsMatch(t, []string{regulation.KindVision, regulation.KindPO}, stmtKinds)

	require.Len(t, ov.Semesters, 2)
	assert.Equal(t, sem1.ID, ov.Semesters[0].ID)
	assert.Equal(t, 1, ov.Semesters[0].Number)
	assert.Equal(t, 7.0, ov.Semesters[0].Credits)
	assert.ElementsMatch(t, []string{"EC3151", "PH3151"}, courseCodes(ov.Semesters[0].Courses))
	assert.Equal(t, sem2.ID, ov.Semesters[1].ID)
	assert.Equal(t, []string{"EC3251"}, courseCodes(ov.Semesters[1].Courses))
	for _, so := range ov.Semesters {
		for _, crs := range so.Courses {
			assert.Equal(t, so.ID, crs.SemesterID)
		}
	}

	require.Len(t, ov.HonourCards, 1)
	require.Len(t, ov.HonourCards[0].Verticals, 1)
	gotVert := ov.HonourCards[0].Verticals[0]
	require.Len(t, gotVert.Courses, 1)
	assert.Equal(t, 4.0, gotVert.Courses[0].Credits)
	assert.Equal(t, 4.0, gotVert.Credits)

	adoptedKinds := make(map[string]string, len(ov.Adopted))
	for _, item := range ov.Adopted {
		assert.Equal(t, cse.ID, item.DepartmentID)
		assert.NotEmpty(t, item.AdoptionID)
		adoptedKinds[item.Kind] = item.ID
	}
	assert.Equal(t, map[string]string{
		cluster.KindPEO:      sharedPEO.ID,
		cluster.KindSemester: sharedSem.ID,
		cluster.KindCourse:   sharedCrs.ID,
	}, adoptedKinds)
}

func courseCodes(crss []course.Course) []string {
	codes := make([]string, 0, len(crss))
	for _, crs := range crss {
		codes = append(codes, crs.Code)
	}
	return codes
}
