package profile

import (
	"context"
	"fmt"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/store"
	"go.uber.org/zap"
	"strings"
	"time"
)

// referralCodeLength is the length of referral codes derived from user ids.
const referralCodeLength = 8

// Profile of a user. Users are authenticated by the identity provider, so only
// additional information is kept here.
type Profile struct {
	UserID          string       `json:"user_id"`
	Name            string       `json:"name"`
	PhoneNumber     string       `json:"phone_number"`
	Age             nulls.Int    `json:"age"`
	Gender          nulls.String `json:"gender"`
	Pincode         nulls.String `json:"pincode"`
	School          nulls.String `json:"school"`
	College         nulls.String `json:"college"`
	AcceptedTerms   bool         `json:"accepted_terms"`
	AcceptedPrivacy bool         `json:"accepted_privacy"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsComplete checks whether the profile holds everything that is required for
// playing: name, age, gender as well as accepted terms and privacy policy.
//
// This is the only place that decides about completeness.
func IsComplete(p Profile) bool {
	return strings.TrimSpace(p.Name) != "" &&
		p.Age.Valid && p.Age.Int > 0 &&
		p.Gender.Valid && strings.TrimSpace(p.Gender.String) != "" &&
		p.AcceptedTerms &&
		p.AcceptedPrivacy
}

// ReferralCode returns the referral code for the user with the given id.
func ReferralCode(userID string) string {
	if len(userID) > referralCodeLength {
		userID = userID[:referralCodeLength]
	}
	return strings.ToUpper(userID)
}

// Update holds the editable fields of a Profile.
type Update struct {
	Name            string       `json:"name"`
	PhoneNumber     string       `json:"phone_number"`
	Age             nulls.Int    `json:"age"`
	Gender          nulls.String `json:"gender"`
	Pincode         nulls.String `json:"pincode"`
	School          nulls.String `json:"school"`
	College         nulls.String `json:"college"`
	AcceptedTerms   bool         `json:"accepted_terms"`
	AcceptedPrivacy bool         `json:"accepted_privacy"`
}

// Validate the update.
func (u Update) Validate() error {
	if u.Age.Valid && (u.Age.Int < 1 || u.Age.Int > 120) {
		return errors.NewBadRequestErr(fmt.Sprintf("invalid age: %d", u.Age.Int), errors.KindInvalidProfile,
			errors.Details{"age": u.Age.Int})
	}
	return nil
}

// Store is the persistence needed by Office.
type Store interface {
	// ProfileByUser retrieves the profile of the user with the given id. If none
	// was found, an errors.ErrNotFound error is returned.
	ProfileByUser(ctx context.Context, userID string) (store.Profile, error)
	UpsertProfile(ctx context.Context, profile store.Profile) error
}

// Office manages profiles.
type Office struct {
	logger *zap.Logger
	store  Store
	now    func() time.Time
}

// NewOffice creates a new Office.
func NewOffice(logger *zap.Logger, store Store) *Office {
	return &Office{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

// Profile returns the profile of the user with the given id. Users without
// stored profile get an empty one.
func (o *Office) Profile(ctx context.Context, userID string) (Profile, error) {
	p, err := o.store.ProfileByUser(ctx, userID)
	if err != nil {
		if e, _ := errors.Cast(err); e.Code == errors.ErrNotFound {
			return Profile{UserID: userID}, nil
		}
		return Profile{}, errors.NewLookupTransportError(err, "profile by user")
	}
	return Profile{
		UserID:          p.UserID,
		Name:            p.Name,
		PhoneNumber:     p.PhoneNumber,
		Age:             p.Age,
		Gender:          p.Gender,
		Pincode:         p.Pincode,
		School:          p.School,
		College:         p.College,
		AcceptedTerms:   p.AcceptedTerms,
		AcceptedPrivacy: p.AcceptedPrivacy,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// trimmed trims the string if set.
func trimmed(s nulls.String) nulls.String {
	if !s.Valid {
		return s
	}
	t := strings.TrimSpace(s.String)
	if t == "" {
		return nulls.String{}
	}
	return nulls.NewString(t)
}

// UpdateProfile replaces the profile of the user with the given id.
func (o *Office) UpdateProfile(ctx context.Context, userID string, update Update) (Profile, error) {
	err := update.Validate()
	if err != nil {
		return Profile{}, err
	}
	p := store.Profile{
		UserID:          userID,
		Name:            strings.TrimSpace(update.Name),
		PhoneNumber:     strings.TrimSpace(update.PhoneNumber),
		Age:             update.Age,
		Gender:          trimmed(update.Gender),
		Pincode:         trimmed(update.Pincode),
		School:          trimmed(update.School),
		College:         trimmed(update.College),
		AcceptedTerms:   update.AcceptedTerms,
		AcceptedPrivacy: update.AcceptedPrivacy,
		UpdatedAt:       o.now(),
	}
	err = o.store.UpsertProfile(ctx, p)
	if err != nil {
		return Profile{}, errors.NewPersistenceError(err, "upsert profile")
	}
	return Profile{
		UserID:          p.UserID,
		Name:            p.Name,
		PhoneNumber:     p.PhoneNumber,
		Age:             p.Age,
		Gender:          p.Gender,
		Pincode:         p.Pincode,
		School:          p.School,
		College:         p.College,
		AcceptedTerms:   p.AcceptedTerms,
		AcceptedPrivacy: p.AcceptedPrivacy,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// RequireComplete returns the profile of the user with the given id. If it is
// not complete, an errors.KindProfileIncomplete error is returned.
func (o *Office) RequireComplete(ctx context.Context, userID string) (Profile, error) {
	p, err := o.Profile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if !IsComplete(p) {
		return Profile{}, errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindProfileIncomplete,
			Message: "please complete your profile first",
			Details: errors.Details{"user_id": userID},
		}
	}
	return p, nil
}
