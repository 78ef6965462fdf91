package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/regulation"
)

// regulationFile is the YAML layout accepted by `admin import`.
type regulationFile struct {
	Department string          `yaml:"department"` // department code
	Code       string          `yaml:"code"`
	Name       string          `yaml:"name"`
	Year       int             `yaml:"year"`
	Status     string          `yaml:"status"`
	MinCredits float64         `yaml:"min_credits"`
	Statements []statementFile `yaml:"statements"`
	Semesters  []semesterFile  `yaml:"semesters"`
}

type statementFile struct {
	Kind   string `yaml:"kind"`
	Number int    `yaml:"number"`
	Body   string `yaml:"body"`
}

type semesterFile struct {
	Number  int          `yaml:"number"`
	Name    string       `yaml:"name"`
	Courses []courseFile `yaml:"courses"`
}

type courseFile struct {
	Code      string        `yaml:"code"`
	Title     string        `yaml:"title"`
	Category  string        `yaml:"category"`
	Lecture   int           `yaml:"lecture"`
	Tutorial  int           `yaml:"tutorial"`
	Practical int           `yaml:"practical"`
	Credits   float64       `yaml:"credits"`
	Syllabus  *syllabusFile `yaml:"syllabus"`
}

type syllabusFile struct {
	Objectives string `yaml:"objectives"`
	Units      []struct {
		Number  int    `yaml:"number"`
		Title   string `yaml:"title"`
		Content string `yaml:"content"`
		Hours   int    `yaml:"hours"`
	} `yaml:"units"`
	Outcomes []struct {
		Number    int    `yaml:"number"`
		Statement string `yaml:"statement"`
	} `yaml:"outcomes"`
	TextBooks      []string `yaml:"text_books"`
	ReferenceBooks []string `yaml:"reference_books"`
}

func (sf *syllabusFile) syllabus() course.Syllabus {
	syl := course.Syllabus{
		Objectives:     sf.Objectives,
		Units:          make([]course.Unit, 0, len(sf.Units)),
		Outcomes:       make([]course.Outcome, 0, len(sf.Outcomes)),
		TextBooks:      sf.TextBooks,
		ReferenceBooks: sf.ReferenceBooks,
	}
	for _, u := range sf.Units {
		syl.Units = append(syl.Units, course.Unit{Number: u.Number, Title: u.Title, Content: u.Content, Hours: u.Hours})
	}
	for _, o := range sf.Outcomes {
		syl.Outcomes = append(syl.Outcomes, course.Outcome{Number: o.Number, Statement: o.Statement})
	}
	return syl
}

// importSummary counts what an import created.
type importSummary struct {
	Regulation regulation.Regulation
	Statements int
	Semesters  int
	Courses    int
	Syllabi    int
}

func (cli *commandLine) importCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create a regulation with its statements, semesters, courses and syllabi from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrap(err, "reading import file")
			}
			sum, err := cli.importRegulation(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "regulation %s (%s) imported: %d statements, %d semesters, %d courses, %d syllabi\n",
				sum.Regulation.Code, sum.Regulation.ID, sum.Statements, sum.Semesters, sum.Courses, sum.Syllabi)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "path of the regulation YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// importRegulation creates every entity of the file through the domain services, one at a time.
// The first failure stops the import and names the entity at fault.
func (cli *commandLine) importRegulation(ctx context.Context, data []byte) (importSummary, error) {
	var sum importSummary
	var rf regulationFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return sum, errors.Wrap(err, "parsing import file")
	}

	dept, err := cli.findDepartment(ctx, rf.Department)
	if err != nil {
		return sum, err
	}

	nr := regulation.NewRegulation{
		DepartmentID: dept.ID,
		Code:         rf.Code,
		Name:         rf.Name,
		Year:         rf.Year,
		Status:       rf.Status,
		MinCredits:   rf.MinCredits,
	}
	if err = nr.Validate(cli.validate); err != nil {
		return sum, errors.Wrap(err, "regulation")
	}
	// entities are created while the regulation is still writable
	status := nr.Status
	nr.Status = regulation.StatusDraft
	if sum.Regulation, err = cli.regSvc.Create(ctx, nr); err != nil {
		return sum, errors.Wrap(err, "creating regulation")
	}
	regID := sum.Regulation.ID

	for i, st := range rf.Statements {
		ns := regulation.NewStatement{Kind: st.Kind, Number: st.Number, Body: st.Body}
		if err = ns.Validate(cli.validate); err != nil {
			return sum, errors.Wrapf(err, "statement #%d", i+1)
		}
		if _, err = cli.regSvc.CreateStatement(ctx, regID, ns); err != nil {
			return sum, errors.Wrapf(err, "creating statement #%d", i+1)
		}
		sum.Statements++
	}

	for _, sf := range rf.Semesters {
		ns := course.NewSemester{Number: sf.Number, Name: sf.Name}
		if err = ns.Validate(cli.validate); err != nil {
			return sum, errors.Wrapf(err, "semester %d", sf.Number)
		}
		sem, err := cli.crsSvc.CreateSemester(ctx, regID, ns)
		if err != nil {
			return sum, errors.Wrapf(err, "creating semester %d", sf.Number)
		}
		sum.Semesters++

		for _, cf := range sf.Courses {
			nc := course.NewCourse{
				Code:      cf.Code,
				Title:     cf.Title,
				Category:  cf.Category,
				Lecture:   cf.Lecture,
				Tutorial:  cf.Tutorial,
				Practical: cf.Practical,
				Credits:   cf.Credits,
			}
			if err = nc.Validate(cli.validate); err != nil {
				return sum, errors.Wrapf(err, "course %s", cf.Code)
			}
			crs, err := cli.crsSvc.CreateCourse(ctx, sem, nc)
			if err != nil {
				return sum, errors.Wrapf(err, "creating course %s", cf.Code)
			}
			sum.Courses++

			if cf.Syllabus == nil {
				continue
			}
			syl := cf.Syllabus.syllabus()
			if err = syl.Validate(cli.validate); err != nil {
				return sum, errors.Wrapf(err, "syllabus of %s", cf.Code)
			}
			if _, err = cli.crsSvc.PutSyllabus(ctx, crs, syl); err != nil {
				return sum, errors.Wrapf(err, "saving syllabus of %s", cf.Code)
			}
			sum.Syllabi++
		}
	}

	if status != regulation.StatusDraft {
		ur := regulation.UpdateRegulation{Status: status}
		if err = ur.Validate(sum.Regulation, cli.validate); err != nil {
			return sum, errors.Wrap(err, "regulation status")
		}
		if sum.Regulation, err = cli.regSvc.Update(ctx, sum.Regulation, ur); err != nil {
			return sum, errors.Wrap(err, "setting regulation status")
		}
	}
	return sum, nil
}

func (cli *commandLine) findDepartment(ctx context.Context, code string) (department.Department, error) {
	code = core.CleanCode(code)
	if code == "" {
		return department.Department{}, errors.New("department code is required")
	}
	depts, err := cli.deptSvc.Query(ctx, &department.QueryFilter{Search: code}, nil)
	if err != nil {
		return department.Department{}, errors.Wrap(err, "querying departments")
	}
	for _, dept := range depts {
		if dept.Code == code {
			return dept, nil
		}
	}
	return department.Department{}, errors.Errorf("department %q not found", code)
}
