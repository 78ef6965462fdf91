// Package testutil prepares migrated test databases and fixtures.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/roster"
	"github.com/syllabix/syllabix/core/user"
	"github.com/syllabix/syllabix/storage/database"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
)

// PrepareDB opens a migrated sqlite database living in the test's temp dir.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Database.Path = filepath.Join(t.TempDir(), "test.db")

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() migrate failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Microsecond)
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateDepartment(t *testing.T, db core.DB, code, name string) department.Department {
	t.Helper()
	now := core.Now()
	dept, err := sqlxrepos.NewDepartmentRepository(db).CreateDepartment(context.Background(), department.Department{
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	return dept
}

// CreateRegulation creates a regulation of deptID, DRAFT unless a status is given.
func CreateRegulation(t *testing.T, db core.DB, deptID, code string, status ...string) regulation.Regulation {
	t.Helper()
	st := regulation.StatusDraft
	if len(status) > 0 {
		st = status[0]
	}
	now := core.Now()
	reg, err := sqlxrepos.NewRegulationRepository(db).CreateRegulation(context.Background(), regulation.Regulation{
		DepartmentID: deptID,
		Code:         code,
		Name:         code,
		Year:         2024,
		Status:       st,
		MinCredits:   160,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateRegulation() failed: %v", err)
	}
	return reg
}

func CreateStatement(t *testing.T, db core.DB, regID, kind string, number int, body, visibility string) regulation.Statement {
	t.Helper()
	now := core.Now()
	stmt, err := sqlxrepos.NewRegulationRepository(db).CreateStatement(context.Background(), regulation.Statement{
		RegulationID: regID,
		Kind:         kind,
		Number:       number,
		Body:         body,
		Visibility:   visibility,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateStatement() failed: %v", err)
	}
	return stmt
}

func CreateSemester(t *testing.T, db core.DB, regID string, number int, visibility string) course.Semester {
	t.Helper()
	now := core.Now()
	sem, err := sqlxrepos.NewCourseRepository(db).CreateSemester(context.Background(), course.Semester{
		RegulationID: regID,
		Number:       number,
		Name:         fmt.Sprintf("Semester %d", number),
		Visibility:   visibility,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateSemester() failed: %v", err)
	}
	return sem
}

func CreateCourse(t *testing.T, db core.DB, sem course.Semester, code, title string, l, tu, p int, visibility string) course.Course {
	t.Helper()
	now := core.Now()
	crs, err := sqlxrepos.NewCourseRepository(db).CreateCourse(context.Background(), course.Course{
		SemesterID:   sem.ID,
		RegulationID: sem.RegulationID,
		Code:         code,
		Title:        title,
		Category:     course.CategoryPC,
		Lecture:      l,
		Tutorial:     tu,
		Practical:    p,
		Credits:      core.Credits(l, tu, p),
		Visibility:   visibility,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CreateCluster creates a cluster holding the given departments.
func CreateCluster(t *testing.T, db core.DB, name string, deptIDs ...string) cluster.Cluster {
	t.Helper()
	ctx := context.Background()
	repo := sqlxrepos.NewClusterRepository(db)
	now := core.Now()
	cl, err := repo.CreateCluster(ctx, cluster.Cluster{Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateCluster() failed: %v", err)
	}
	if err = repo.SetDepartmentsCluster(ctx, deptIDs, cl.ID); err != nil {
		t.Fatalf("CreateCluster() failed: %v", err)
	}
	if cl, err = repo.GetCluster(ctx, cl.ID); err != nil {
		t.Fatalf("CreateCluster() failed: %v", err)
	}
	return cl
}

// Adopt records an adoption of an item by a regulation, bypassing the sharing rules.
func Adopt(t *testing.T, db core.DB, regID, kind, itemID, sourceDeptID string) cluster.Adoption {
	t.Helper()
	a, err := sqlxrepos.NewClusterRepository(db).CreateAdoption(context.Background(), cluster.Adoption{
		Kind:               kind,
		ItemID:             itemID,
		SourceDepartmentID: sourceDeptID,
		RegulationID:       regID,
		CreatedAt:          core.Now(),
	})
	if err != nil {
		t.Fatalf("Adopt() failed: %v", err)
	}
	return a
}

func CreateTeacher(t *testing.T, db core.DB, deptID, staffID, name string) roster.Teacher {
	t.Helper()
	now := core.Now()
	tch, err := sqlxrepos.NewRosterRepository(db).CreateTeacher(context.Background(), roster.Teacher{
		StaffID:      staffID,
		Name:         name,
		DepartmentID: deptID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateStudent(t *testing.T, db core.DB, deptID, regID, registerNumber, name string, batch int) roster.Student {
	t.Helper()
	now := core.Now()
	st, err := sqlxrepos.NewRosterRepository(db).CreateStudent(context.Background(), roster.Student{
		RegisterNumber:  registerNumber,
		Name:            name,
		DepartmentID:    deptID,
		RegulationID:    regID,
		Batch:           batch,
		CurrentSemester: 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// TestLogger forwards log lines to t.Log.
type TestLogger struct {
	t testing.TB
}

var _ core.Logger = TestLogger{}

func NewLogger(t testing.TB) TestLogger { return TestLogger{t: t} }

func (l TestLogger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	if len(args) > 0 {
		l.t.Logf("%s: %s %v", level, msg, args)
		return
	}
	l.t.Logf("%s: %s", level, msg)
}

func (l TestLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l TestLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l TestLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l TestLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l TestLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.t.FailNow()
}
