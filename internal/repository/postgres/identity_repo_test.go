package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/hamzaharrayhan/face-recognition-login/internal/errs"
	"github.com/hamzaharrayhan/face-recognition-login/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var identityCols = []string{"phone_number", "country_code", "full_name", "face_images", "otp_code", "otp_expiration_time", "created_at"}

func TestIdentityRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIdentityRepo(db)
	ctx := context.Background()
	id := &model.Identity{
		Key:        model.IdentityKey{PhoneNumber: "5551234", CountryCode: "1"},
		FullName:   "Alice",
		FaceImages: []string{"a", "b", "c"},
	}

	mock.ExpectExec(`INSERT INTO identities \(phone_number, country_code, full_name, face_images\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs("5551234", "1", "Alice", []string{"a", "b", "c"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, id))

	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs("5551234", "1", "Alice", []string{"a", "b", "c"}).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, id), errs.ErrAlreadyRegistered)

	boom := errors.New("conn reset")
	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs("5551234", "1", "Alice", []string{"a", "b", "c"}).
		WillReturnError(boom)
	require.ErrorIs(t, r.Create(ctx, id), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIdentityRepo(db)
	ctx := context.Background()
	key := model.IdentityKey{PhoneNumber: "5551234", CountryCode: "1"}
	created := time.Now().UTC()

	// without OTP
	mock.ExpectQuery(`SELECT phone_number, country_code, full_name, face_images, otp_code, otp_expiration_time, created_at FROM identities WHERE phone_number=\$1 AND country_code=\$2`).
		WithArgs("5551234", "1").
		WillReturnRows(pgxmock.NewRows(identityCols).
			AddRow("5551234", "1", "Alice", []string{"a", "b", "c"}, (*int32)(nil), (*int64)(nil), created))
	got, err := r.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, key, got.Key)
	require.Equal(t, []string{"a", "b", "c"}, got.FaceImages)
	require.Nil(t, got.OTP)

	// with OTP
	code := int32(123456)
	exp := int64(1700000120)
	mock.ExpectQuery(`SELECT .* FROM identities WHERE phone_number=\$1 AND country_code=\$2`).
		WithArgs("5551234", "1").
		WillReturnRows(pgxmock.NewRows(identityCols).
			AddRow("5551234", "1", "Alice", []string{"a", "b", "c"}, &code, &exp, created))
	got, err = r.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got.OTP)
	require.Equal(t, 123456, got.OTP.Code)
	require.Equal(t, exp, got.OTP.ExpirationTime)

	// not found
	mock.ExpectQuery(`SELECT .* FROM identities`).
		WithArgs("5551234", "1").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, key)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// other failures are not masked as not found
	mock.ExpectQuery(`SELECT .* FROM identities`).
		WithArgs("5551234", "1").
		WillReturnError(errors.New("timeout"))
	_, err = r.Get(ctx, key)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestIdentityRepo_SetOTP(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIdentityRepo(db)
	ctx := context.Background()
	key := model.IdentityKey{PhoneNumber: "5551234", CountryCode: "1"}
	otp := model.OTP{Code: 654321, ExpirationTime: 1700000120}

	mock.ExpectExec(`UPDATE identities SET otp_code = \$3, otp_expiration_time = \$4 WHERE phone_number = \$1 AND country_code = \$2`).
		WithArgs("5551234", "1", int32(654321), int64(1700000120)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetOTP(ctx, key, otp))

	mock.ExpectExec(`UPDATE identities SET otp_code`).
		WithArgs("5551234", "1", int32(654321), int64(1700000120)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetOTP(ctx, key, otp), errs.ErrNotFound)

	mock.ExpectExec(`UPDATE identities SET otp_code`).
		WithArgs("5551234", "1", int32(654321), int64(1700000120)).
		WillReturnError(errors.New("boom"))
	require.Error(t, r.SetOTP(ctx, key, otp))
}
