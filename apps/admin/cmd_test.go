package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/user"
	testutil "github.com/syllabix/syllabix/tests"
)

var realGooseRunFunc = gooseRunFunc

func setup(t *testing.T) *commandLine {
	t.Helper()
	return newCommandLine(testutil.PrepareDB(t))
}

// run executes the CLI with args, answering password prompts with pwd.
func run(cli *commandLine, pwd string, args ...string) (string, error) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	var out bytes.Buffer
	root := newRootCmd(cli)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	type call struct {
		command string
		args    []string
	}
	var calls []call
	t.Cleanup(func() { gooseRunFunc = realGooseRunFunc })
	gooseRunFunc = func(_ context.Context, db *sqlx.DB, command string, args ...string) error {
		assert.Same(t, cli.db, db)
		calls = append(calls, call{command: command, args: args})
		return nil
	}

	_, err := run(cli, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")

	for _, args := range [][]string{{"up"}, {"up-to", "2"}, {"down"}, {"create", "course", "sql"}} {
		_, err = run(cli, "", append([]string{"migrate"}, args...)...)
		require.NoError(t, err)
	}
	assert.Equal(t, []call{
		{command: "up", args: []string{}},
		{command: "up-to", args: []string{"2"}},
		{command: "down", args: []string{}},
		{command: "create", args: []string{"course", "sql"}},
	}, calls)

	// the real runner over the embedded migrations
	gooseRunFunc = realGooseRunFunc
	_, err = run(cli, "", "migrate", "version")
	assert.NoError(t, err)
	_, err = run(cli, "", "migrate", "lol")
	assert.Error(t, err)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	_, err := run(cli, "pwd", "adduser", "--username", "boss")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"email"`)

	_, err = run(cli, "", "adduser", "--username", "boss", "--email", "boss@test.edu")
	assert.Equal(t, errEmptyPassword, err)

	out, err := run(cli, "S3cret!", "adduser", "--username", "Boss", "--email", "BOSS@test.edu", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, `user "boss" saved`)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "boss"})
	require.NoError(t, err)
	assert.Equal(t, "boss@test.edu", usr.Email)
	assert.Equal(t, "boss", usr.Name)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
	assert.ElementsMatch(t, user.AllRoles, usr.Roles)
	assert.NoError(t, usr.CheckPassword("S3cret!"))

	// existing users are updated
	_, err = run(cli, "N3wer!", "adduser", "--username", "boss", "--email", "boss@test.edu", "--name", "The Boss")
	require.NoError(t, err)
	updated, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, "The Boss", updated.Name)
	assert.NoError(t, updated.CheckPassword("N3wer!"))
	assert.ElementsMatch(t, user.AllRoles, updated.Roles)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe", "awe@test.edu", "mdr", nil, true)

	_, err := run(cli, "lol", "resetpassword")
	require.Error(t, err)

	_, err = run(cli, "", "resetpassword", "--username", usr.Username)
	assert.Equal(t, errEmptyPassword, err)

	_, err = run(cli, "lol", "resetpassword", "--username", "nobody")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	for _, tt := range []struct{ uname, pwd string }{
		{uname: usr.Username, pwd: "lol"},
		{uname: "AWE@test.edu", pwd: "lmao"},
	} {
		t.Run(tt.uname, func(t *testing.T) {
			_, err := run(cli, tt.pwd, "resetpassword", "--username", tt.uname)
			require.NoError(t, err)
			refreshed, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}

const regulationYAML = `
department: cse
code: r2024
name: Regulation 2024
year: 2024
status: PUBLISHED
min_credits: 163
statements:
  - kind: PEO
    body: Graduates will apply computing fundamentals.
  - kind: peo
    body: Graduates will engage in lifelong learning.
  - kind: PO
    number: 3
    body: Design and development of solutions.
semesters:
  - number: 1
    courses:
      - code: MA3151
        title: Matrices and Calculus
        category: BS
        lecture: 3
        tutorial: 1
        syllabus:
          objectives: Develop the use of matrix algebra.
          units:
            - title: Matrices
              hours: 12
            - title: Differential Calculus
              hours: 12
          outcomes:
            - statement: Use matrix algebra techniques.
          text_books:
            - Grewal B.S., Higher Engineering Mathematics
      - code: GE3151
        title: Problem Solving and Python Programming
        category: ES
        lecture: 3
  - number: 2
    name: Second Semester
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regulation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_commandLine_import(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	dept := testutil.CreateDepartment(t, cli.db, "CSE", "Computer Science")

	_, err := run(cli, "", "import")
	require.Error(t, err)

	out, err := run(cli, "", "import", "-f", writeFile(t, regulationYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "3 statements, 2 semesters, 2 courses, 1 syllabi")

	regs, err := cli.regSvc.Query(ctx, &regulation.QueryFilter{DepartmentID: dept.ID}, nil)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	reg := regs[0]
	assert.Equal(t, "R2024", reg.Code)
	assert.Equal(t, regulation.StatusPublished, reg.Status)
	assert.Equal(t, float64(163), reg.MinCredits)

	peos, err := cli.regSvc.QueryStatements(ctx, reg.ID, regulation.KindPEO)
	require.NoError(t, err)
	require.Len(t, peos, 2)
	assert.Equal(t, 1, peos[0].Number)
	assert.Equal(t, 2, peos[1].Number)

	sems, err := cli.crsSvc.QuerySemesters(ctx, reg.ID)
	require.NoError(t, err)
	require.Len(t, sems, 2)
	assert.Equal(t, "Second Semester", sems[1].Name)

	courses, err := cli.crsSvc.QueryCourses(ctx, &course.QueryFilter{RegulationID: reg.ID, Search: "MA3151"}, nil)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, float64(4), courses[0].Credits)

	syl, err := cli.crsSvc.GetSyllabus(ctx, courses[0])
	require.NoError(t, err)
	require.Len(t, syl.Units, 2)
	assert.Equal(t, 2, syl.Units[1].Number)
	assert.Equal(t, []string{"Grewal B.S., Higher Engineering Mathematics"}, syl.TextBooks)

	// same code again
	_, err = run(cli, "", "import", "-f", writeFile(t, regulationYAML))
	assert.Error(t, err)
}

func Test_commandLine_importErrors(t *testing.T) {
	cli := setup(t)
	testutil.CreateDepartment(t, cli.db, "CSE", "Computer Science")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "invalid yaml", content: "code: [", wantErr: "parsing import file"},
		{name: "unknown department", content: "department: XYZ\ncode: R1\nname: R1\nyear: 2021\n", wantErr: `department "XYZ" not found`},
		{
			name:    "invalid course",
			content: "department: CSE\ncode: R2\nname: R2\nyear: 2021\nsemesters:\n  - number: 1\n    courses:\n      - code: X1\n        title: X\n        category: LOL\n",
			wantErr: "course X1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(cli, "", "import", "--file", writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
