package repository

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/database"
	"github.com/jackc/pgx/v5"
)

// PostgresUserRepository stores users in the usuarios table.
type PostgresUserRepository struct {
	db database.Queryer
}

// NewUserRepository accepts a pgxpool.Pool or anything with the same query surface.
func NewUserRepository(db database.Queryer) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) q(ctx context.Context) database.Queryer {
	return database.QueryerFromContext(ctx, r.db)
}

// Create inserts a user and returns it with its generated id.
func (r *PostgresUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	row := r.q(ctx).QueryRow(ctx, `
        INSERT INTO usuarios (nombre, email, password, rol)
        VALUES ($1, $2, $3, $4)
        RETURNING id, nombre, email, password, rol, creado_en
    `, u.Name, u.Email, u.PasswordHash, string(u.Role))

	created, err := scanUser(row)
	if err != nil {
		return model.User{}, translatePgError(err)
	}
	return created, nil
}

// Update changes name, e-mail and role. The password hash is left alone.
func (r *PostgresUserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	row := r.q(ctx).QueryRow(ctx, `
        UPDATE usuarios
           SET nombre = $1,
               email = $2,
               rol = $3
         WHERE id = $4
        RETURNING id, nombre, email, password, rol, creado_en
    `, u.Name, u.Email, string(u.Role), u.ID)

	updated, err := scanUser(row)
	if err != nil {
		return model.User{}, translatePgError(err)
	}
	return updated, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	row := r.q(ctx).QueryRow(ctx, `
        SELECT id, nombre, email, password, rol, creado_en
          FROM usuarios
         WHERE id = $1
    `, id)

	found, err := scanUser(row)
	if err != nil {
		return model.User{}, translatePgError(err)
	}
	return found, nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.q(ctx).QueryRow(ctx, `
        SELECT id, nombre, email, password, rol, creado_en
          FROM usuarios
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanUser(row)
	if err != nil {
		return model.User{}, translatePgError(err)
	}
	return found, nil
}

// List returns every user ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.q(ctx).Query(ctx, `
        SELECT id, nombre, email, password, rol, creado_en
          FROM usuarios
         ORDER BY id ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// LockSubject must run inside a transaction; see database.TransactionManager.
func (r *PostgresUserRepository) LockSubject(ctx context.Context, id int64) error {
	var locked int64
	err := r.q(ctx).QueryRow(ctx, `SELECT id FROM usuarios WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return translatePgError(err)
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u         model.User
		role      string
		createdAt time.Time
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdAt); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = createdAt
	return u, nil
}
