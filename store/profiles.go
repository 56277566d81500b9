package store

import (
	"context"
	"github.com/doug-martin/goqu/v9"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/vrcafe-server/errors"
	"time"
)

// Profile is a stored user profile.
type Profile struct {
	UserID          string
	Name            string
	PhoneNumber     string
	Age             nulls.Int
	Gender          nulls.String
	Pincode         nulls.String
	School          nulls.String
	College         nulls.String
	AcceptedTerms   bool
	AcceptedPrivacy bool
	UpdatedAt       time.Time
}

// ProfileByUser retrieves the Profile of the user with the given id. If none
// was found, an errors.ErrNotFound error is returned.
func (m *Mall) ProfileByUser(ctx context.Context, userID string) (Profile, error) {
	q, _, err := m.dialect.From(goqu.T("profiles")).
		Select(goqu.C("user_id"),
			goqu.C("name"),
			goqu.C("phone_number"),
			goqu.C("age"),
			goqu.C("gender"),
			goqu.C("pincode"),
			goqu.C("school"),
			goqu.C("college"),
			goqu.C("accepted_terms"),
			goqu.C("accepted_privacy"),
			goqu.C("updated_at")).
		Where(goqu.C("user_id").Eq(userID)).ToSQL()
	if err != nil {
		return Profile{}, errors.NewQueryToSQLError(err, errors.Details{"user_id": userID})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return Profile{}, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	if !rows.Next() {
		if rows.Err() != nil {
			return Profile{}, errors.NewExecQueryError(rows.Err(), "query db", q)
		}
		return Profile{}, errors.NewResourceNotFoundError("profile not found", errors.Details{"user_id": userID})
	}
	var profile Profile
	err = rows.Scan(&profile.UserID,
		&profile.Name,
		&profile.PhoneNumber,
		&profile.Age,
		&profile.Gender,
		&profile.Pincode,
		&profile.School,
		&profile.College,
		&profile.AcceptedTerms,
		&profile.AcceptedPrivacy,
		&profile.UpdatedAt)
	if err != nil {
		return Profile{}, errors.NewScanDBRowError(err, "scan row", q)
	}
	return profile, nil
}

// UpsertProfile creates or replaces the given Profile.
func (m *Mall) UpsertProfile(ctx context.Context, profile Profile) error {
	record := goqu.Record{
		"user_id":          profile.UserID,
		"name":             profile.Name,
		"phone_number":     profile.PhoneNumber,
		"age":              profile.Age,
		"gender":           profile.Gender,
		"pincode":          profile.Pincode,
		"school":           profile.School,
		"college":          profile.College,
		"accepted_terms":   profile.AcceptedTerms,
		"accepted_privacy": profile.AcceptedPrivacy,
		"updated_at":       profile.UpdatedAt,
	}
	q, _, err := m.dialect.Insert(goqu.T("profiles")).Rows(record).
		OnConflict(goqu.DoUpdate("user_id", goqu.Record{
			"name":             goqu.L("excluded.name"),
			"phone_number":     goqu.L("excluded.phone_number"),
			"age":              goqu.L("excluded.age"),
			"gender":           goqu.L("excluded.gender"),
			"pincode":          goqu.L("excluded.pincode"),
			"school":           goqu.L("excluded.school"),
			"college":          goqu.L("excluded.college"),
			"accepted_terms":   goqu.L("excluded.accepted_terms"),
			"accepted_privacy": goqu.L("excluded.accepted_privacy"),
			"updated_at":       goqu.L("excluded.updated_at"),
		})).ToSQL()
	if err != nil {
		return errors.NewQueryToSQLError(err, errors.Details{"user_id": profile.UserID})
	}
	_, err = m.db.Exec(ctx, q)
	if err != nil {
		return errors.NewExecQueryError(err, "exec query", q)
	}
	return nil
}
