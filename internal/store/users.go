package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// newID returns a time-ordered UUID so rows inserted within the same second
// still sort by creation.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ts normalizes a timestamp for storage. Whole seconds in UTC keep the
// textual SQLite representation comparable.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts(*t), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

var userColumns = []string{"id", "email", "first_name", "last_name", "role", "is_active", "created_at"}

func scanUser(sc interface{ Scan(...any) error }) (User, error) {
	var u User
	err := sc.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

// CreateUser inserts u, assigning an ID and creation time when unset.
func (q *queries) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = ts(u.CreatedAt)

	b := q.builder().Insert(usersTable.Name).
		Columns(userColumns...).
		Values(u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive, u.CreatedAt)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given ID.
func (q *queries) GetUser(ctx context.Context, id string) (*User, error) {
	b := q.builder()
	sel := b.Select(userColumns...).From(b.Table(usersTable.Name)).Where(entsql.EQ("id", id))
	u, err := scanUser(q.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

var paraleloColumns = []string{"id", "name", "level", "teacher_id", "is_active", "created_at"}

// CreateParalelo inserts p, assigning an ID and creation time when unset.
func (q *queries) CreateParalelo(ctx context.Context, p *Paralelo) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = ts(p.CreatedAt)

	b := q.builder().Insert(paralelosTable.Name).
		Columns(paraleloColumns...).
		Values(p.ID, p.Name, p.Level, nullString(p.TeacherID), p.IsActive, p.CreatedAt)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("create paralelo: %w", err)
	}
	return nil
}

// GetParalelo returns the paralelo with the given ID.
func (q *queries) GetParalelo(ctx context.Context, id string) (*Paralelo, error) {
	b := q.builder()
	sel := b.Select(paraleloColumns...).From(b.Table(paralelosTable.Name)).Where(entsql.EQ("id", id))

	var (
		p       Paralelo
		teacher sql.NullString
	)
	err := q.queryRow(ctx, sel).Scan(&p.ID, &p.Name, &p.Level, &teacher, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "paralelo")
	}
	p.TeacherID = teacher.String
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

var enrollmentColumns = []string{"id", "student_id", "paralelo_id", "is_active", "enrolled_at"}

// Enroll inserts e, assigning an ID and enrollment time when unset.
func (q *queries) Enroll(ctx context.Context, e *Enrollment) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	e.EnrolledAt = ts(e.EnrolledAt)

	b := q.builder().Insert(enrollmentsTable.Name).
		Columns(enrollmentColumns...).
		Values(e.ID, e.StudentID, e.ParaleloID, e.IsActive, e.EnrolledAt)
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// ActiveEnrollment returns the oldest active enrollment of a student.
func (q *queries) ActiveEnrollment(ctx context.Context, studentID string) (*Enrollment, error) {
	b := q.builder()
	sel := b.Select(enrollmentColumns...).
		From(b.Table(enrollmentsTable.Name)).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("is_active", true),
		)).
		OrderBy("enrolled_at", "id").
		Limit(1)

	var e Enrollment
	err := q.queryRow(ctx, sel).Scan(&e.ID, &e.StudentID, &e.ParaleloID, &e.IsActive, &e.EnrolledAt)
	if err != nil {
		return nil, notFound(err, "enrollment")
	}
	e.EnrolledAt = e.EnrolledAt.UTC()
	return &e, nil
}

// ParaleloStudents returns active students actively enrolled in a paralelo,
// ordered by name.
func (q *queries) ParaleloStudents(ctx context.Context, paraleloID string) ([]User, error) {
	b := q.builder()
	u := b.Table(usersTable.Name).As("u")
	e := b.Table(enrollmentsTable.Name).As("e")

	cols := make([]string, len(userColumns))
	for i, c := range userColumns {
		cols[i] = u.C(c)
	}
	sel := b.Select(cols...).
		From(u).
		Join(e).On(u.C("id"), e.C("student_id")).
		Where(entsql.And(
			entsql.EQ(e.C("paralelo_id"), paraleloID),
			entsql.EQ(e.C("is_active"), true),
			entsql.EQ(u.C("is_active"), true),
		)).
		OrderBy(u.C("last_name"), u.C("first_name"), u.C("id"))

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list paralelo students: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, usr)
	}
	return out, rows.Err()
}
