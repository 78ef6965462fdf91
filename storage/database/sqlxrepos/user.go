package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	Roles        string      `db:"roles"`
	DepartmentID null.String `db:"department_id"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     usr.IsActive,
		Roles:        strings.Join(usr.Roles, ","),
		DepartmentID: null.NewString(usr.DepartmentID, usr.DepartmentID != ""),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive,
		Roles:        []string{},
		DepartmentID: r.DepartmentID.String,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Roles != "" {
		usr.Roles = strings.Split(r.Roles, ",")
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

const userColumns = `id, name, username, email, is_active, roles, department_id, password_hash, created_at, updated_at, last_login`

var userOrdering = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{baseRepository{db: db}}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	var conds conditions
	switch {
	case username != "" && email != "":
		conds.add("(username = ? OR email = ?)", username, email)
	case username != "":
		conds.add("username = ?", username)
	case email != "":
		conds.add("email = ?", email)
	default:
		return nil
	}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		conds.add("id NOT IN (?)", ids)
	}

	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + conds.where() + ` LIMIT 2`
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
		if email != "" && r.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	r := newUserRow(usr)
	_, err := execQuery(ctx, repo.executor(exec), `
		INSERT INTO "user" (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Username, r.Email, r.IsActive, r.Roles, r.DepartmentID, r.PasswordHash, r.CreatedAt, r.UpdatedAt, r.LastLogin,
	)
	if err != nil {
		if errors.Cause(err) == core.ErrUniqueViolation {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return r.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var conds conditions
	if filter != nil && !filter.IsEmpty() {
		conds.search(filter.Search, "name", "username", "email")
		if len(filter.Roles) > 0 {
			ors := make([]string, 0, len(filter.Roles))
			args := make([]interface{}, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				// roles are comma-joined; match role prefixes such as "admin:"
				ors = append(ors, "(',' || roles) LIKE ?")
				args = append(args, "%,"+role+"%")
			}
			conds.add("("+strings.Join(ors, " OR ")+")", args...)
		}
		if filter.IsActive != nil {
			conds.add("is_active = ?", *filter.IsActive)
		}
		if filter.DepartmentID != "" {
			conds.add("department_id = ?", filter.DepartmentID)
		}
		if !filter.CreatedFrom.IsZero() {
			conds.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + conds.where() + orderBy(ordering, userOrdering, "created_at DESC")
	if err := selectRows(ctx, repo.executor(exec), &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var conds conditions
	switch {
	case filter.ID != "":
		conds.add("id = ?", filter.ID)
	case filter.Username != "":
		conds.add("username = ?", filter.Username)
	case filter.Email != "":
		conds.add("email = ?", filter.Email)
	case len(filter.UsernameOrEmail) > 0:
		uname, email := filter.UsernameOrEmail[0], filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		conds.add("(username = ? OR email = ?)", uname, email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var r userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + conds.where() + ` LIMIT 1`
	if err := get(ctx, repo.executor(exec), &r, user.ErrNotFound, q, conds.args...); err != nil {
		return user.User{}, err
	}
	return r.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	r := newUserRow(usr)
	err := execAffecting(ctx, repo.executor(exec), user.ErrNotFound, `
		UPDATE "user" SET name = ?, username = ?, email = ?, is_active = ?, roles = ?, department_id = ?,
			password_hash = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		r.Name, r.Username, r.Email, r.IsActive, r.Roles, r.DepartmentID, r.PasswordHash, r.UpdatedAt, r.LastLogin, r.ID,
	)
	if err != nil {
		if errors.Cause(err) == core.ErrUniqueViolation {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, err
	}
	return r.toUser(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ex := repo.executor(exec)
	q, args, err := expand(ex, `DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(mapErr(err), "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "getting affected rows")
}
