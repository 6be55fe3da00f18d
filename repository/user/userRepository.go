package userrepo

import (
	"context"

	"github.com/fercon997/accountable-challenge/errs"
	"github.com/fercon997/accountable-challenge/model"
	"github.com/fercon997/accountable-challenge/util/database"
)

// Repo is the user-lookup collaborator: the batch notices only need ids and
// email addresses.
type Repo interface {
	GetByIDs(ctx context.Context, q database.Querier, ids []string) ([]model.User, error)
}

type repo struct{}

func New() Repo { return &repo{} }

func (r *repo) GetByIDs(ctx context.Context, q database.Querier, ids []string) ([]model.User, error) {
	const query = `
		SELECT id, email, created_at
		FROM users
		WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, errs.Wrap(errs.CodePersistence, err, "could not get users by ids")
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.CodePersistence, err, "could not get users by ids")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
